package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/events"
	"github.com/mmynk/groupledger/internal/lock"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/storage"
	"github.com/mmynk/groupledger/internal/storage/sqlite"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type countingLocker struct {
	mu       sync.Mutex
	acquired map[string]int
	released int
}

func (l *countingLocker) Acquire(_ context.Context, groupID string) (lock.Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acquired == nil {
		l.acquired = make(map[string]int)
	}
	l.acquired[groupID]++
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newGroup(t *testing.T, r *Recorder, members ...string) *models.Group {
	t.Helper()
	group := &models.Group{Name: "Test Group", AdminID: members[0]}
	for _, m := range members {
		group.Members = append(group.Members, models.Member{ID: m, Name: m})
	}
	require.NoError(t, r.CreateGroup(context.Background(), group))
	return group
}

func balancesOf(t *testing.T, r *Recorder, groupID string) map[string]string {
	t.Helper()
	balances, err := r.Balances(context.Background(), groupID)
	require.NoError(t, err)
	out := make(map[string]string, len(balances))
	for _, b := range balances {
		out[b.MemberID] = b.Balance.String()
	}
	return out
}

func transferStrings(transfers []models.Transfer) []string {
	out := make([]string, len(transfers))
	for i, t := range transfers {
		out[i] = fmt.Sprintf("%s->%s %s", t.Debtor, t.Creditor, t.Payment)
	}
	return out
}

func equalExpense(groupID, title, payer, amount string) *models.Expense {
	return &models.Expense{
		GroupID: groupID,
		Title:   title,
		PayerID: payer,
		Amount:  money.MustParse(amount),
		AddedBy: payer,
	}
}

func TestCreateExpense(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	r := NewRecorder(newTestStore(t), WithPublisher(pub))
	group := newGroup(t, r, "A", "B", "C")

	result, err := r.CreateExpense(ctx, equalExpense(group.ID, "Dinner", "A", "100"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"A": "66.66", "B": "-33.33", "C": "-33.33"}, balancesOf(t, r, group.ID))
	assert.True(t, result.Deltas.Sum().IsZero())

	require.Len(t, result.Proposed, 2)
	assert.Equal(t, "B", result.Proposed[0].Debtor)
	assert.Equal(t, "C", result.Proposed[1].Debtor)
	for _, p := range result.Proposed {
		assert.Equal(t, "A", p.Creditor)
		assert.Equal(t, "33.33", p.Payment.String())
		assert.Equal(t, models.KindProposed, p.Kind)
		assert.Equal(t, result.Expense.ID, p.ExpenseID)
	}

	txns, err := r.ExpenseTransactions(ctx, result.Expense.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 2)

	assert.Equal(t, []events.Type{events.ExpenseCreated}, pub.types())
}

func TestCreateExpenseWithShares(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t))
	group := newGroup(t, r, "A", "B", "C")

	_, err := r.CreateExpense(ctx, &models.Expense{
		GroupID: group.ID,
		Title:   "Tickets",
		PayerID: "A",
		Amount:  money.MustParse("90"),
		Participants: []models.Participant{
			{MemberID: "A", PaidAmt: money.MustParse("60")},
			{MemberID: "B", PaidAmt: money.MustParse("30")},
			{MemberID: "C", PaidAmt: money.MustParse("0")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "30.00", "B": "0.00", "C": "-30.00"}, balancesOf(t, r, group.ID))
}

func TestCreateExpenseRejected(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	store := newTestStore(t)
	r := NewRecorder(store, WithPublisher(pub))
	group := newGroup(t, r, "A", "B")

	tests := []struct {
		name    string
		expense *models.Expense
		wantErr error
	}{
		{
			name:    "zero amount",
			expense: equalExpense(group.ID, "zero", "A", "0"),
			wantErr: calculator.ErrInvalidAmount,
		},
		{
			name: "shares do not add up",
			expense: &models.Expense{
				GroupID: group.ID, Title: "mismatch", PayerID: "A", Amount: money.MustParse("50"),
				Participants: []models.Participant{
					{MemberID: "A", PaidAmt: money.MustParse("20")},
					{MemberID: "B", PaidAmt: money.MustParse("20")},
				},
			},
			wantErr: calculator.ErrShareMismatch,
		},
		{
			name:    "payer outside group",
			expense: equalExpense(group.ID, "stranger", "Z", "10"),
			wantErr: ErrNotMember,
		},
		{
			name: "participant outside group",
			expense: &models.Expense{
				GroupID: group.ID, Title: "outsider", PayerID: "A", Amount: money.MustParse("10"),
				Participants: []models.Participant{{MemberID: "Z", PaidAmt: money.MustParse("10")}},
			},
			wantErr: ErrNotMember,
		},
		{
			name:    "unknown group",
			expense: equalExpense("missing", "x", "A", "10"),
			wantErr: storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.CreateExpense(ctx, tt.expense)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	expenses, err := r.ListExpenses(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, expenses, "rejected expenses must not be stored")
	assert.Equal(t, map[string]string{"A": "0.00", "B": "0.00"}, balancesOf(t, r, group.ID))
	assert.Empty(t, pub.types(), "nothing is published for a rolled back write")
}

func TestDuplicateTitle(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t))
	group := newGroup(t, r, "A", "B")

	_, err := r.CreateExpense(ctx, equalExpense(group.ID, "Rent", "A", "10"))
	require.NoError(t, err)
	_, err = r.CreateExpense(ctx, equalExpense(group.ID, "Rent", "B", "10"))
	require.ErrorIs(t, err, storage.ErrConflict)

	assert.Equal(t, map[string]string{"A": "5.00", "B": "-5.00"}, balancesOf(t, r, group.ID))
}

func TestAmountsBeyondLimitRejected(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t))
	group := newGroup(t, r, "A", "B")

	_, err := money.Parse("100000000000000000000.00")
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	// Each expense moves half of the maximum; two of them reach it exactly.
	for _, title := range []string{"Yacht", "Jet"} {
		_, err := r.CreateExpense(ctx, equalExpense(group.ID, title, "A", money.Max.String()))
		require.NoError(t, err)
	}
	want := map[string]string{"A": "10000000000000.00", "B": "-10000000000000.00"}
	assert.Equal(t, want, balancesOf(t, r, group.ID))

	_, err = r.CreateExpense(ctx, equalExpense(group.ID, "Island", "A", money.Max.String()))
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = r.RecordPayment(ctx, Payment{GroupID: group.ID, Debtor: "A", Creditor: "B", Amount: money.MustParse("0.01")})
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	assert.Equal(t, want, balancesOf(t, r, group.ID), "rejected writes leave the ledger untouched")
	expenses, err := r.ListExpenses(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestUpdateExpenseRoundTrip(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	r := NewRecorder(newTestStore(t), WithPublisher(pub))
	group := newGroup(t, r, "A", "B")

	created, err := r.CreateExpense(ctx, equalExpense(group.ID, "Groceries", "A", "100"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "50.00", "B": "-50.00"}, balancesOf(t, r, group.ID))

	update := equalExpense("", "Groceries", "A", "200")
	update.ID = created.Expense.ID
	updated, err := r.UpdateExpense(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, group.ID, updated.Expense.GroupID)
	assert.Equal(t, map[string]string{"A": "100.00", "B": "-100.00"}, balancesOf(t, r, group.ID))

	txns, err := r.ExpenseTransactions(ctx, created.Expense.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1, "stale proposed rows must be replaced")
	assert.Equal(t, "B", txns[0].Debtor)
	assert.Equal(t, "100.00", txns[0].Payment.String())

	detail, err := r.GetExpense(ctx, created.Expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "200.00", detail.Expense.Amount.String())
	assert.False(t, detail.IsSettled)

	assert.Equal(t, []events.Type{events.ExpenseCreated, events.ExpenseUpdated}, pub.types())
}

func TestUpdateExpenseChangesPayer(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t))
	group := newGroup(t, r, "A", "B", "C")

	created, err := r.CreateExpense(ctx, equalExpense(group.ID, "Taxi", "A", "30"))
	require.NoError(t, err)

	update := equalExpense("", "Taxi", "C", "30")
	update.ID = created.Expense.ID
	_, err = r.UpdateExpense(ctx, update)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"A": "-10.00", "B": "-10.00", "C": "20.00"}, balancesOf(t, r, group.ID))
}

func TestUpdateExpenseRejectedKeepsLedger(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t))
	group := newGroup(t, r, "A", "B")

	created, err := r.CreateExpense(ctx, equalExpense(group.ID, "Lunch", "A", "20"))
	require.NoError(t, err)

	update := &models.Expense{
		ID: created.Expense.ID, Title: "Lunch", PayerID: "A", Amount: money.MustParse("20"),
		Participants: []models.Participant{{MemberID: "A", PaidAmt: money.MustParse("5")}},
	}
	_, err = r.UpdateExpense(ctx, update)
	require.ErrorIs(t, err, calculator.ErrShareMismatch)

	assert.Equal(t, map[string]string{"A": "10.00", "B": "-10.00"}, balancesOf(t, r, group.ID))
	txns, err := r.ExpenseTransactions(ctx, created.Expense.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	_, err = r.UpdateExpense(ctx, &models.Expense{ID: "missing", Amount: money.MustParse("1")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	r := NewRecorder(newTestStore(t), WithPublisher(pub))
	group := newGroup(t, r, "X", "Y")

	_, err := r.CreateExpense(ctx, equalExpense(group.ID, "Concert", "Y", "60"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X": "-30.00", "Y": "30.00"}, balancesOf(t, r, group.ID))

	txn, err := r.RecordPayment(ctx, Payment{
		GroupID: group.ID, Debtor: "X", Creditor: "Y", Amount: money.MustParse("30"), CreatedBy: "X", Note: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, models.KindActual, txn.Kind)
	assert.NotEmpty(t, txn.ID)

	assert.Equal(t, map[string]string{"X": "0.00", "Y": "0.00"}, balancesOf(t, r, group.ID))

	history, err := r.SettlementHistory(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "30.00", history[0].Payment.String())
	assert.Equal(t, "cash", history[0].Note)

	transfers, err := r.SuggestedSettlements(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, transfers)

	assert.Equal(t, []events.Type{events.ExpenseCreated, events.PaymentRecorded}, pub.types())
}

func TestRecordPaymentRejected(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t))
	group := newGroup(t, r, "X", "Y")
	other := newGroup(t, r, "X", "Z")

	otherExpense, err := r.CreateExpense(ctx, equalExpense(other.ID, "Elsewhere", "X", "10"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		payment Payment
		wantErr error
	}{
		{"zero", Payment{GroupID: group.ID, Debtor: "X", Creditor: "Y", Amount: money.Zero}, ErrZeroPayment},
		{"negative", Payment{GroupID: group.ID, Debtor: "X", Creditor: "Y", Amount: money.MustParse("-5")}, ErrZeroPayment},
		{"self", Payment{GroupID: group.ID, Debtor: "X", Creditor: "X", Amount: money.MustParse("5")}, ErrSelfPayment},
		{"stranger", Payment{GroupID: group.ID, Debtor: "X", Creditor: "Z", Amount: money.MustParse("5")}, ErrNotMember},
		{"unknown group", Payment{GroupID: "missing", Debtor: "X", Creditor: "Y", Amount: money.MustParse("5")}, storage.ErrNotFound},
		{"expense from another group", Payment{GroupID: group.ID, Debtor: "X", Creditor: "Y", Amount: money.MustParse("5"), ExpenseID: otherExpense.Expense.ID}, storage.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.RecordPayment(ctx, tt.payment)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	history, err := r.SettlementHistory(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExpenseSettledByTaggedPayment(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t))
	group := newGroup(t, r, "A", "B")

	created, err := r.CreateExpense(ctx, equalExpense(group.ID, "Hotel", "A", "80"))
	require.NoError(t, err)

	_, err = r.RecordPayment(ctx, Payment{
		GroupID: group.ID, Debtor: "B", Creditor: "A", Amount: money.MustParse("15"), ExpenseID: created.Expense.ID,
	})
	require.NoError(t, err)
	detail, err := r.GetExpense(ctx, created.Expense.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsSettled)

	_, err = r.RecordPayment(ctx, Payment{
		GroupID: group.ID, Debtor: "B", Creditor: "A", Amount: money.MustParse("25"), ExpenseID: created.Expense.ID,
	})
	require.NoError(t, err)
	detail, err = r.GetExpense(ctx, created.Expense.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsSettled)

	txns, err := r.ExpenseTransactions(ctx, created.Expense.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 3)
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	r := NewRecorder(newTestStore(t), WithPublisher(pub))
	group := newGroup(t, r, "A", "B")

	keep, err := r.CreateExpense(ctx, equalExpense(group.ID, "Keep", "B", "10"))
	require.NoError(t, err)
	gone, err := r.CreateExpense(ctx, equalExpense(group.ID, "Gone", "A", "40"))
	require.NoError(t, err)
	_, err = r.RecordPayment(ctx, Payment{
		GroupID: group.ID, Debtor: "B", Creditor: "A", Amount: money.MustParse("5"), ExpenseID: gone.Expense.ID,
	})
	require.NoError(t, err)

	require.NoError(t, r.DeleteExpense(ctx, gone.Expense.ID))

	// only Keep and the payment remain: A -5 +(-5), B +5 +5
	assert.Equal(t, map[string]string{"A": "-10.00", "B": "10.00"}, balancesOf(t, r, group.ID))

	_, err = r.GetExpense(ctx, gone.Expense.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	history, err := r.SettlementHistory(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].ExpenseID)

	txns, err := r.ExpenseTransactions(ctx, keep.Expense.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	assert.ErrorIs(t, r.DeleteExpense(ctx, gone.Expense.ID), storage.ErrNotFound)

	drift, err := r.Reconcile(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestSuggestedSettlements(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t))
	group := newGroup(t, r, "A", "B", "C", "D")

	_, err := r.CreateExpense(ctx, equalExpense(group.ID, "Cabin", "A", "400"))
	require.NoError(t, err)
	_, err = r.CreateExpense(ctx, equalExpense(group.ID, "Food", "B", "100"))
	require.NoError(t, err)

	// A: +300 -25, B: -100 +75, C and D: -100 -25
	balances := balancesOf(t, r, group.ID)
	assert.Equal(t, map[string]string{"A": "275.00", "B": "-25.00", "C": "-125.00", "D": "-125.00"}, balances)

	transfers, err := r.SuggestedSettlements(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"C->A 125.00", "D->A 125.00", "B->A 25.00"}, transferStrings(transfers))

	again, err := r.SuggestedSettlements(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, transferStrings(transfers), transferStrings(again), "netting is deterministic")

	_, err = r.SuggestedSettlements(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMembership(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	r := NewRecorder(newTestStore(t), WithPublisher(pub))
	group := newGroup(t, r, "admin", "B")

	require.NoError(t, r.AddMember(ctx, &models.Member{ID: "C", GroupID: group.ID, Name: "Carol"}))
	assert.ErrorIs(t, r.AddMember(ctx, &models.Member{ID: "C", GroupID: group.ID}), storage.ErrConflict)

	_, err := r.CreateExpense(ctx, equalExpense(group.ID, "Pizza", "admin", "30"))
	require.NoError(t, err)

	assert.ErrorIs(t, r.RemoveMember(ctx, group.ID, "admin"), ErrAdminRemoval)
	assert.ErrorIs(t, r.RemoveMember(ctx, group.ID, "C"), ErrUnsettledBalance)
	assert.ErrorIs(t, r.RemoveMember(ctx, group.ID, "nobody"), ErrNotMember)
	assert.ErrorIs(t, r.DeleteGroup(ctx, group.ID), ErrUnsettledBalance)

	_, err = r.RecordPayment(ctx, Payment{GroupID: group.ID, Debtor: "C", Creditor: "admin", Amount: money.MustParse("10")})
	require.NoError(t, err)
	require.NoError(t, r.RemoveMember(ctx, group.ID, "C"))

	got, err := r.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "B"}, got.MemberIDs())

	_, err = r.RecordPayment(ctx, Payment{GroupID: group.ID, Debtor: "B", Creditor: "admin", Amount: money.MustParse("10")})
	require.NoError(t, err)
	require.NoError(t, r.DeleteGroup(ctx, group.ID))

	_, err = r.GetGroup(ctx, group.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, []events.Type{
		events.MemberAdded,
		events.ExpenseCreated,
		events.PaymentRecorded,
		events.MemberRemoved,
		events.PaymentRecorded,
		events.GroupDeleted,
	}, pub.types())
}

func TestCreateGroupAddsAdmin(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t))

	group := &models.Group{Name: "Club", AdminID: "owner", Members: []models.Member{{ID: "guest"}}}
	require.NoError(t, r.CreateGroup(ctx, group))
	assert.Equal(t, []string{"owner", "guest"}, group.MemberIDs())

	groups, err := r.ListGroups(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Club", groups[0].Name)

	updated, err := r.UpdateGroup(ctx, &models.Group{ID: group.ID, Description: "weekly", AdminID: "guest"})
	require.NoError(t, err)
	assert.Equal(t, "Club", updated.Name)
	assert.Equal(t, "guest", updated.AdminID)
	assert.Equal(t, "weekly", updated.Description)

	updated, err = r.UpdateGroup(ctx, &models.Group{ID: group.ID, Name: "Book club"})
	require.NoError(t, err)
	assert.Equal(t, "Book club", updated.Name)
	assert.Equal(t, "weekly", updated.Description, "a rename keeps the description")
	assert.Equal(t, "guest", updated.AdminID)

	_, err = r.UpdateGroup(ctx, &models.Group{ID: group.ID, AdminID: "stranger"})
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestMutationsTakeGroupLock(t *testing.T) {
	ctx := context.Background()
	locker := &countingLocker{}
	r := NewRecorder(newTestStore(t), WithLocker(locker))
	group := newGroup(t, r, "A", "B")

	created, err := r.CreateExpense(ctx, equalExpense(group.ID, "One", "A", "10"))
	require.NoError(t, err)
	update := equalExpense("", "One", "A", "12")
	update.ID = created.Expense.ID
	_, err = r.UpdateExpense(ctx, update)
	require.NoError(t, err)
	_, err = r.RecordPayment(ctx, Payment{GroupID: group.ID, Debtor: "B", Creditor: "A", Amount: money.MustParse("6")})
	require.NoError(t, err)
	require.NoError(t, r.DeleteExpense(ctx, created.Expense.ID))

	assert.Equal(t, 4, locker.acquired[group.ID])
	assert.Equal(t, 4, locker.released)
}

type failingLocker struct{}

func (failingLocker) Acquire(context.Context, string) (lock.Release, error) {
	return nil, lock.ErrNotObtained
}

func TestLockNotObtained(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	group := newGroup(t, NewRecorder(store), "A", "B")

	r := NewRecorder(store, WithLocker(failingLocker{}))
	_, err := r.CreateExpense(ctx, equalExpense(group.ID, "Blocked", "A", "10"))
	assert.ErrorIs(t, err, lock.ErrNotObtained)
}

// skewStore hands out transactions whose group balance writes are off by one
// cent for a single member.
type skewStore struct {
	storage.Store
	member string
}

func (s *skewStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Tx) error {
		return fn(&skewTx{Tx: tx, member: s.member})
	})
}

type skewTx struct {
	storage.Tx
	member string
}

func (t *skewTx) PutGroupBalance(ctx context.Context, groupID, memberID string, balance money.Money) error {
	if memberID == t.member {
		balance = balance.Add(money.MustParse("0.01"))
	}
	return t.Tx.PutGroupBalance(ctx, groupID, memberID, balance)
}

func TestInvariantViolationRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	pub := &capturePublisher{}
	clean := NewRecorder(store)
	group := newGroup(t, clean, "A", "B")

	r := NewRecorder(&skewStore{Store: store, member: "B"}, WithPublisher(pub))
	_, err := r.CreateExpense(ctx, equalExpense(group.ID, "Broken", "A", "10"))
	require.ErrorIs(t, err, ErrLedgerInvariantViolation)

	expenses, err := clean.ListExpenses(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, expenses)
	assert.Equal(t, map[string]string{"A": "0.00", "B": "0.00"}, balancesOf(t, clean, group.ID))
	assert.Empty(t, pub.types())
}

func TestConcurrentExpenses(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t))
	group := newGroup(t, r, "A", "B", "C")
	payers := []string{"A", "B", "C"}

	const n = 12
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.CreateExpense(ctx, equalExpense(group.ID, fmt.Sprintf("expense-%d", i), payers[i%3], "10"))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sum := money.Zero
	balances, err := r.Balances(ctx, group.ID)
	require.NoError(t, err)
	for _, b := range balances {
		sum = sum.Add(b.Balance)
	}
	assert.True(t, sum.IsZero())

	drift, err := r.Reconcile(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(newTestStore(t), WithPublisher(failingPublisher{}))
	group := newGroup(t, r, "A", "B")

	_, err := r.CreateExpense(ctx, equalExpense(group.ID, "Still saved", "A", "10"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "5.00", "B": "-5.00"}, balancesOf(t, r, group.ID))
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error {
	return errors.New("redis unavailable")
}
