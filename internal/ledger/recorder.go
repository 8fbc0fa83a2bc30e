package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/events"
	"github.com/mmynk/groupledger/internal/lock"
	"github.com/mmynk/groupledger/internal/metrics"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/storage"
)

// Recorder is the write side of the ledger. Every mutation runs in a single
// store transaction, under the group's lock, and announces itself only after
// commit.
type Recorder struct {
	store     storage.Store
	ledger    *Ledger
	locker    lock.Locker
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLocker sets the per-group lock. Defaults to lock.Noop.
func WithLocker(l lock.Locker) Option {
	return func(r *Recorder) { r.locker = l }
}

// WithPublisher sets the event publisher. Defaults to events.Noop.
func WithPublisher(p events.Publisher) Option {
	return func(r *Recorder) { r.publisher = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// NewRecorder creates a Recorder on top of store.
func NewRecorder(store storage.Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:     store,
		ledger:    New(),
		locker:    lock.Noop{},
		publisher: events.Noop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExpenseResult is what a create or update leaves behind.
type ExpenseResult struct {
	Expense  *models.Expense
	Deltas   models.Deltas
	Proposed []*models.SettlementTransaction
}

// ExpenseDetail is an expense together with its ledger rows.
type ExpenseDetail struct {
	Expense   *models.Expense
	Balances  []models.ExpenseBalance
	IsSettled bool
}

// Payment is a confirmed money movement between two members.
type Payment struct {
	GroupID   string
	Debtor    string
	Creditor  string
	Amount    money.Money
	ExpenseID string // optional
	CreatedBy string
	Note      string
}

// CreateGroup creates a group. The admin is added as the first member when
// not already listed.
func (r *Recorder) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.AdminID != "" && !group.HasMember(group.AdminID) {
		group.Members = append([]models.Member{{ID: group.AdminID}}, group.Members...)
	}

	start := time.Now()
	err := r.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CreateGroup(ctx, group)
	})
	r.metrics.ObserveOperation("create_group", start, err)
	if err != nil {
		return err
	}

	slog.Info("Group created", "group_id", group.ID, "admin_id", group.AdminID, "members", len(group.Members))
	return nil
}

// GetGroup returns a group with its members.
func (r *Recorder) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return r.store.GetGroup(ctx, groupID)
}

// ListGroups returns the groups memberID belongs to.
func (r *Recorder) ListGroups(ctx context.Context, memberID string) ([]*models.Group, error) {
	return r.store.ListGroupsByMember(ctx, memberID)
}

// UpdateGroup changes the name and description of a group. Empty fields are
// left as they are; a non-empty AdminID hands administration to that member.
func (r *Recorder) UpdateGroup(ctx context.Context, update *models.Group) (*models.Group, error) {
	var group *models.Group
	err := r.mutate(ctx, "update_group", update.ID, func(tx storage.Tx) error {
		var err error
		group, err = tx.GetGroup(ctx, update.ID)
		if err != nil {
			return err
		}
		if update.AdminID != "" {
			if !group.HasMember(update.AdminID) {
				return fmt.Errorf("%w: %s", ErrNotMember, update.AdminID)
			}
			group.AdminID = update.AdminID
		}
		if update.Name != "" {
			group.Name = update.Name
		}
		if update.Description != "" {
			group.Description = update.Description
		}
		return tx.UpdateGroup(ctx, group)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes a group once every balance in it is zero.
func (r *Recorder) DeleteGroup(ctx context.Context, groupID string) error {
	err := r.mutate(ctx, "delete_group", groupID, func(tx storage.Tx) error {
		balances, err := tx.GroupBalances(ctx, groupID)
		if err != nil {
			return err
		}
		for _, b := range balances {
			if !b.IsSettled() {
				return fmt.Errorf("%w: %s has balance %s", ErrUnsettledBalance, b.MemberID, b.Balance)
			}
		}
		return tx.DeleteGroup(ctx, groupID)
	})
	if err != nil {
		return err
	}

	slog.Info("Group deleted", "group_id", groupID)
	r.publish(ctx, events.Event{Type: events.GroupDeleted, GroupID: groupID})
	return nil
}

// AddMember adds a member to an existing group.
func (r *Recorder) AddMember(ctx context.Context, member *models.Member) error {
	err := r.mutate(ctx, "add_member", member.GroupID, func(tx storage.Tx) error {
		if _, err := tx.GetGroup(ctx, member.GroupID); err != nil {
			return err
		}
		return tx.AddMember(ctx, member)
	})
	if err != nil {
		return err
	}

	slog.Info("Member added", "group_id", member.GroupID, "member_id", member.ID)
	r.publish(ctx, events.Event{Type: events.MemberAdded, GroupID: member.GroupID, MemberID: member.ID})
	return nil
}

// RemoveMember removes a member whose balance is zero. The admin stays.
func (r *Recorder) RemoveMember(ctx context.Context, groupID, memberID string) error {
	err := r.mutate(ctx, "remove_member", groupID, func(tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if memberID == group.AdminID {
			return ErrAdminRemoval
		}
		if !group.HasMember(memberID) {
			return fmt.Errorf("%w: %s", ErrNotMember, memberID)
		}
		balance, err := tx.GetGroupBalance(ctx, groupID, memberID)
		if err != nil {
			return err
		}
		if !balance.IsZero() {
			return fmt.Errorf("%w: %s has balance %s", ErrUnsettledBalance, memberID, balance)
		}
		return tx.RemoveMember(ctx, groupID, memberID)
	})
	if err != nil {
		return err
	}

	slog.Info("Member removed", "group_id", groupID, "member_id", memberID)
	r.publish(ctx, events.Event{Type: events.MemberRemoved, GroupID: groupID, MemberID: memberID})
	return nil
}

// Balances returns every member's running balance. Members that were never
// touched by an expense or payment are reported at zero after the others.
func (r *Recorder) Balances(ctx context.Context, groupID string) ([]models.GroupBalance, error) {
	group, err := r.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	balances, err := r.store.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(balances))
	for _, b := range balances {
		seen[b.MemberID] = true
	}
	for _, m := range group.Members {
		if !seen[m.ID] {
			balances = append(balances, models.GroupBalance{GroupID: groupID, MemberID: m.ID, Balance: money.Zero})
		}
	}
	return balances, nil
}

// CreateExpense splits an expense, applies it to the ledger and stores the
// transfers that would settle it.
func (r *Recorder) CreateExpense(ctx context.Context, expense *models.Expense) (*ExpenseResult, error) {
	if !expense.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: expense amount must be positive, got %s", calculator.ErrInvalidAmount, expense.Amount)
	}

	result := &ExpenseResult{Expense: expense}
	err := r.mutate(ctx, "create_expense", expense.GroupID, func(tx storage.Tx) error {
		deltas, err := r.split(ctx, tx, expense, "")
		if err != nil {
			return err
		}
		if err := tx.CreateExpense(ctx, expense); err != nil {
			return err
		}
		if err := r.ledger.ApplyExpenseDelta(ctx, tx, expense.ID, expense.GroupID, deltas); err != nil {
			return err
		}
		result.Deltas = deltas
		result.Proposed, err = r.propose(ctx, tx, expense, deltas)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Expense created",
		"group_id", expense.GroupID,
		"expense_id", expense.ID,
		"amount", expense.Amount,
		"payer_id", expense.PayerID,
		"proposed", len(result.Proposed),
	)
	r.publish(ctx, events.Event{Type: events.ExpenseCreated, GroupID: expense.GroupID, ExpenseID: expense.ID})
	return result, nil
}

// UpdateExpense replaces an expense. Its previous effect on the ledger is
// reversed and its proposed transfers are regenerated.
func (r *Recorder) UpdateExpense(ctx context.Context, expense *models.Expense) (*ExpenseResult, error) {
	if !expense.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: expense amount must be positive, got %s", calculator.ErrInvalidAmount, expense.Amount)
	}

	// The group of an expense never changes, so the committed row is enough
	// to pick the lock.
	existing, err := r.store.GetExpense(ctx, expense.ID)
	if err != nil {
		return nil, err
	}

	result := &ExpenseResult{Expense: expense}
	err = r.mutate(ctx, "update_expense", existing.GroupID, func(tx storage.Tx) error {
		old, err := tx.GetExpense(ctx, expense.ID)
		if err != nil {
			return err
		}
		expense.GroupID = old.GroupID
		expense.AddedBy = old.AddedBy
		expense.CreatedAt = old.CreatedAt

		deltas, err := r.split(ctx, tx, expense, old.PayerID)
		if err != nil {
			return err
		}

		oldDeltas, err := expenseDeltas(ctx, tx, expense.ID)
		if err != nil {
			return err
		}
		if err := r.ledger.ReverseExpenseDelta(ctx, tx, expense.ID, expense.GroupID, oldDeltas); err != nil {
			return err
		}
		if _, err := tx.DeleteProposedTransactions(ctx, expense.ID); err != nil {
			return err
		}
		if err := tx.UpdateExpense(ctx, expense); err != nil {
			return err
		}
		if err := r.ledger.ApplyExpenseDelta(ctx, tx, expense.ID, expense.GroupID, deltas); err != nil {
			return err
		}
		result.Deltas = deltas
		result.Proposed, err = r.propose(ctx, tx, expense, deltas)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Expense updated", "group_id", expense.GroupID, "expense_id", expense.ID, "amount", expense.Amount)
	r.publish(ctx, events.Event{Type: events.ExpenseUpdated, GroupID: expense.GroupID, ExpenseID: expense.ID})
	return result, nil
}

// DeleteExpense reverses an expense's effect and removes it.
func (r *Recorder) DeleteExpense(ctx context.Context, expenseID string) error {
	existing, err := r.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	groupID := existing.GroupID

	err = r.mutate(ctx, "delete_expense", groupID, func(tx storage.Tx) error {
		oldDeltas, err := expenseDeltas(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		if err := r.ledger.ReverseExpenseDelta(ctx, tx, expenseID, groupID, oldDeltas); err != nil {
			return err
		}
		return tx.DeleteExpense(ctx, expenseID)
	})
	if err != nil {
		return err
	}

	slog.Info("Expense deleted", "group_id", groupID, "expense_id", expenseID)
	r.publish(ctx, events.Event{Type: events.ExpenseDeleted, GroupID: groupID, ExpenseID: expenseID})
	return nil
}

// GetExpense returns an expense with its balances and settled state.
func (r *Recorder) GetExpense(ctx context.Context, expenseID string) (*ExpenseDetail, error) {
	expense, err := r.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	balances, err := r.store.ExpenseBalances(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	tagged, err := r.store.ListTransactionsByExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	return &ExpenseDetail{
		Expense:   expense,
		Balances:  balances,
		IsSettled: ExpenseSettled(balances, tagged),
	}, nil
}

// ListExpenses returns a group's expenses, newest first.
func (r *Recorder) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	if _, err := r.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return r.store.ListExpensesByGroup(ctx, groupID)
}

// RecordPayment appends an actual payment and applies it to the balances.
func (r *Recorder) RecordPayment(ctx context.Context, p Payment) (*models.SettlementTransaction, error) {
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrZeroPayment, p.Amount)
	}
	if p.Debtor == p.Creditor {
		return nil, fmt.Errorf("%w: %s", ErrSelfPayment, p.Debtor)
	}

	txn := &models.SettlementTransaction{
		GroupID:   p.GroupID,
		ExpenseID: p.ExpenseID,
		Debtor:    p.Debtor,
		Creditor:  p.Creditor,
		Payment:   p.Amount,
		Kind:      models.KindActual,
		CreatedBy: p.CreatedBy,
		Note:      p.Note,
	}
	err := r.mutate(ctx, "record_payment", p.GroupID, func(tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, p.GroupID)
		if err != nil {
			return err
		}
		for _, id := range []string{p.Debtor, p.Creditor} {
			if !group.HasMember(id) {
				return fmt.Errorf("%w: %s", ErrNotMember, id)
			}
		}
		if p.ExpenseID != "" {
			expense, err := tx.GetExpense(ctx, p.ExpenseID)
			if err != nil {
				return err
			}
			if expense.GroupID != p.GroupID {
				return fmt.Errorf("%w: expense %s in group %s", storage.ErrNotFound, p.ExpenseID, p.GroupID)
			}
		}

		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}
		return r.ledger.ApplyDirectPayment(ctx, tx, p.GroupID, p.Debtor, p.Creditor, p.Amount)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Payment recorded",
		"group_id", p.GroupID,
		"debtor", p.Debtor,
		"creditor", p.Creditor,
		"amount", p.Amount,
		"transaction_id", txn.ID,
	)
	r.publish(ctx, events.Event{Type: events.PaymentRecorded, GroupID: p.GroupID, ExpenseID: p.ExpenseID, MemberID: p.Debtor})
	return txn, nil
}

// SuggestedSettlements nets the group's current balances into transfers. It
// is computed on every call.
func (r *Recorder) SuggestedSettlements(ctx context.Context, groupID string) ([]models.Transfer, error) {
	if _, err := r.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	snapshot, err := r.ledger.Snapshot(ctx, r.store, groupID)
	if err != nil {
		return nil, err
	}

	transfers, err := calculator.ComputeSettlements(snapshot)
	if err != nil {
		r.invariantViolated("suggested_settlements", groupID, err)
		return nil, err
	}
	r.metrics.TransfersSuggested(len(transfers))
	return transfers, nil
}

// SettlementHistory returns the group's actual payments, oldest first.
func (r *Recorder) SettlementHistory(ctx context.Context, groupID string) ([]*models.SettlementTransaction, error) {
	if _, err := r.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return r.store.ListTransactionsByGroup(ctx, groupID, models.KindActual)
}

// ExpenseTransactions returns every proposed and actual row tagged with an
// expense.
func (r *Recorder) ExpenseTransactions(ctx context.Context, expenseID string) ([]*models.SettlementTransaction, error) {
	if _, err := r.store.GetExpense(ctx, expenseID); err != nil {
		return nil, err
	}
	return r.store.ListTransactionsByExpense(ctx, expenseID)
}

// Reconcile reports members whose stored balance differs from a replay.
func (r *Recorder) Reconcile(ctx context.Context, groupID string) ([]Drift, error) {
	if _, err := r.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	drift, err := r.ledger.Reconcile(ctx, r.store, groupID)
	if err != nil {
		return nil, err
	}
	if len(drift) > 0 {
		slog.Error("Group balances drifted from replay", "group_id", groupID, "members", len(drift))
	}
	return drift, nil
}

// split validates the expense against the group and computes its deltas.
// previousPayer may stay payer after leaving the group.
func (r *Recorder) split(ctx context.Context, tx storage.Tx, expense *models.Expense, previousPayer string) (models.Deltas, error) {
	group, err := tx.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(expense.PayerID) && expense.PayerID != previousPayer {
		return nil, fmt.Errorf("%w: payer %s", ErrNotMember, expense.PayerID)
	}
	for _, p := range expense.Participants {
		if !group.HasMember(p.MemberID) {
			return nil, fmt.Errorf("%w: participant %s", ErrNotMember, p.MemberID)
		}
	}

	members, err := tx.ListMembers(ctx, expense.GroupID)
	if err != nil {
		return nil, err
	}
	return calculator.SplitExpense(expense.PayerID, expense.Amount, expense.Participants, members)
}

// propose nets an expense's own deltas and stores the result as proposed
// transactions tagged with the expense.
func (r *Recorder) propose(ctx context.Context, tx storage.Tx, expense *models.Expense, deltas models.Deltas) ([]*models.SettlementTransaction, error) {
	transfers, err := calculator.ComputeSettlements(models.Snapshot(deltas))
	if err != nil {
		return nil, err
	}

	proposed := make([]*models.SettlementTransaction, 0, len(transfers))
	for _, t := range transfers {
		txn := &models.SettlementTransaction{
			GroupID:   expense.GroupID,
			ExpenseID: expense.ID,
			Debtor:    t.Debtor,
			Creditor:  t.Creditor,
			Payment:   t.Payment,
			Kind:      models.KindProposed,
			CreatedBy: expense.AddedBy,
		}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return nil, err
		}
		proposed = append(proposed, txn)
	}
	return proposed, nil
}

// mutate runs fn in one transaction under the group's lock.
func (r *Recorder) mutate(ctx context.Context, op, groupID string, fn func(tx storage.Tx) error) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveOperation(op, start, err) }()

	release, err := r.locker.Acquire(ctx, groupID)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			slog.Warn("Failed to release group lock", "group_id", groupID, "error", rerr)
		}
	}()

	err = r.store.WithTx(ctx, fn)
	if errors.Is(err, ErrLedgerInvariantViolation) {
		r.invariantViolated(op, groupID, err)
	}
	return err
}

func (r *Recorder) invariantViolated(op, groupID string, err error) {
	r.metrics.InvariantViolation()
	slog.Error("Ledger invariant violated", "operation", op, "group_id", groupID, "error", err)
}

// publish announces a committed change. Failures are logged, never returned.
func (r *Recorder) publish(ctx context.Context, e events.Event) {
	if e.At == 0 {
		e.At = time.Now().Unix()
	}
	if err := r.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("Failed to publish event", "type", e.Type, "group_id", e.GroupID, "error", err)
	}
}

func expenseDeltas(ctx context.Context, r storage.Reader, expenseID string) (models.Deltas, error) {
	rows, err := r.ExpenseBalances(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	deltas := make(models.Deltas, len(rows))
	for i, b := range rows {
		deltas[i] = models.MemberAmount{MemberID: b.MemberID, Amount: b.Balance}
	}
	return deltas, nil
}
