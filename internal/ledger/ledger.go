// Package ledger keeps per-expense and per-group balances and records
// expenses, payments and the settlements derived from them.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/storage"
)

var (
	// ErrZeroPayment is returned for a real payment that is zero or negative.
	ErrZeroPayment = errors.New("payment must be greater than zero")
	// ErrNotMember is returned when a referenced member is not in the group.
	ErrNotMember = errors.New("not a member of the group")
	// ErrSelfPayment is returned when debtor and creditor are the same member.
	ErrSelfPayment = errors.New("debtor and creditor must be different members")
	// ErrUnsettledBalance is returned when an operation needs zero balances.
	ErrUnsettledBalance = errors.New("balance is not settled")
	// ErrAdminRemoval is returned when removing the group admin.
	ErrAdminRemoval = errors.New("the group admin cannot be removed")

	// ErrLedgerInvariantViolation aborts the enclosing transaction.
	ErrLedgerInvariantViolation = calculator.ErrLedgerInvariantViolation
)

// Ledger applies balance changes inside a caller-owned transaction. It holds
// no state of its own.
type Ledger struct{}

// New creates a Ledger.
func New() *Ledger {
	return &Ledger{}
}

// ApplyExpenseDelta records deltas as the balances of expenseID and folds them
// into the group's running balances.
func (l *Ledger) ApplyExpenseDelta(ctx context.Context, tx storage.Tx, expenseID, groupID string, deltas models.Deltas) error {
	for _, d := range deltas {
		amt := money.Snap(d.Amount)
		if err := tx.UpsertExpenseBalance(ctx, expenseID, d.MemberID, amt); err != nil {
			return err
		}
		if err := l.addToGroupBalance(ctx, tx, groupID, d.MemberID, amt); err != nil {
			return err
		}
	}
	return l.checkInvariant(ctx, tx, groupID, expenseID)
}

// ReverseExpenseDelta undoes a previously applied expense: the negated deltas
// go into the running balances and the expense's balance rows are removed.
func (l *Ledger) ReverseExpenseDelta(ctx context.Context, tx storage.Tx, expenseID, groupID string, oldDeltas models.Deltas) error {
	for _, d := range oldDeltas.Negate() {
		if err := l.addToGroupBalance(ctx, tx, groupID, d.MemberID, money.Snap(d.Amount)); err != nil {
			return err
		}
	}
	if err := tx.DeleteExpenseBalances(ctx, expenseID); err != nil {
		return err
	}
	return l.checkInvariant(ctx, tx, groupID, "")
}

// ApplyDirectPayment moves amount from creditor to debtor: the debtor owes
// less, the creditor is owed less.
func (l *Ledger) ApplyDirectPayment(ctx context.Context, tx storage.Tx, groupID, debtor, creditor string, amount money.Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrZeroPayment, amount)
	}
	if debtor == creditor {
		return fmt.Errorf("%w: %s", ErrSelfPayment, debtor)
	}
	if err := l.addToGroupBalance(ctx, tx, groupID, debtor, amount); err != nil {
		return err
	}
	if err := l.addToGroupBalance(ctx, tx, groupID, creditor, amount.Neg()); err != nil {
		return err
	}
	return l.checkInvariant(ctx, tx, groupID, "")
}

// Snapshot returns the group's balances in first-touch order.
func (l *Ledger) Snapshot(ctx context.Context, r storage.Reader, groupID string) (models.Snapshot, error) {
	balances, err := r.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	snapshot := make(models.Snapshot, len(balances))
	for i, b := range balances {
		snapshot[i] = models.MemberAmount{MemberID: b.MemberID, Amount: b.Balance}
	}
	return snapshot, nil
}

// Drift is a member whose stored balance disagrees with a full replay.
type Drift struct {
	MemberID string
	Stored   money.Money
	Replayed money.Money
}

// Reconcile replays every expense and actual payment of the group and
// compares the result with the stored running balances.
func (l *Ledger) Reconcile(ctx context.Context, r storage.Reader, groupID string) ([]Drift, error) {
	expenses, err := r.ExpenseBalancesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	actual, err := r.ListTransactionsByGroup(ctx, groupID, models.KindActual)
	if err != nil {
		return nil, err
	}
	stored, err := l.Snapshot(ctx, r, groupID)
	if err != nil {
		return nil, err
	}

	replayed := calculator.ReplayBalances(expenses, toTransfers(actual))

	want := make(map[string]money.Money, len(replayed))
	for _, b := range replayed {
		want[b.MemberID] = b.Amount
	}

	var drift []Drift
	for _, b := range stored {
		exp := want[b.MemberID]
		delete(want, b.MemberID)
		if !b.Amount.Equal(exp) {
			drift = append(drift, Drift{MemberID: b.MemberID, Stored: b.Amount, Replayed: exp})
		}
	}
	// members the replay touched but that have no stored row
	for _, b := range replayed {
		if exp, ok := want[b.MemberID]; ok && !exp.IsZero() {
			drift = append(drift, Drift{MemberID: b.MemberID, Stored: money.Zero, Replayed: exp})
		}
	}
	return drift, nil
}

// ExpenseSettled reports whether the actual payments tagged with an expense
// cover its deltas.
func ExpenseSettled(balances []models.ExpenseBalance, tagged []*models.SettlementTransaction) bool {
	deltas := make(models.Deltas, len(balances))
	for i, b := range balances {
		deltas[i] = models.MemberAmount{MemberID: b.MemberID, Amount: b.Balance}
	}
	var actual []*models.SettlementTransaction
	for _, t := range tagged {
		if t.Kind == models.KindActual {
			actual = append(actual, t)
		}
	}
	for _, b := range calculator.ReplayBalances([]models.Deltas{deltas}, toTransfers(actual)) {
		if !b.Amount.IsZero() {
			return false
		}
	}
	return true
}

func (l *Ledger) addToGroupBalance(ctx context.Context, tx storage.Tx, groupID, memberID string, amt money.Money) error {
	current, err := tx.GetGroupBalance(ctx, groupID, memberID)
	if err != nil {
		return err
	}
	next := money.Snap(current.Add(amt))
	if !next.InRange() {
		return fmt.Errorf("%w: balance of %s in group %s would reach %s", money.ErrInvalidAmount, memberID, groupID, next)
	}
	return tx.PutGroupBalance(ctx, groupID, memberID, next)
}

// checkInvariant verifies that the group, and the expense when given, still
// sum to zero.
func (l *Ledger) checkInvariant(ctx context.Context, tx storage.Tx, groupID, expenseID string) error {
	sum, err := tx.SumGroupBalances(ctx, groupID)
	if err != nil {
		return err
	}
	if !sum.IsZero() {
		return fmt.Errorf("%w: group %s balances sum to %s", ErrLedgerInvariantViolation, groupID, sum)
	}
	if expenseID == "" {
		return nil
	}

	sum, err = tx.SumExpenseBalances(ctx, expenseID)
	if err != nil {
		return err
	}
	if !sum.IsZero() {
		return fmt.Errorf("%w: expense %s balances sum to %s", ErrLedgerInvariantViolation, expenseID, sum)
	}
	return nil
}

func toTransfers(txns []*models.SettlementTransaction) []models.Transfer {
	transfers := make([]models.Transfer, len(txns))
	for i, t := range txns {
		transfers[i] = models.Transfer{Debtor: t.Debtor, Creditor: t.Creditor, Payment: t.Payment}
	}
	return transfers
}
