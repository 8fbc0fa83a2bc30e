package models

import "github.com/mmynk/groupledger/internal/money"

// ExpenseBalance is one member's balance within a single expense.
// The balances of one expense always sum to zero.
type ExpenseBalance struct {
	ExpenseID string
	MemberID  string
	Balance   money.Money
}

// GroupBalance is one member's running balance across all expenses and
// payments of a group. The balances of one group always sum to zero.
type GroupBalance struct {
	GroupID  string
	MemberID string
	Balance  money.Money
}

// IsSettled reports whether the member owes and is owed nothing.
func (b GroupBalance) IsSettled() bool {
	return b.Balance.IsZero()
}

// Snapshot is an ordered member -> balance view of a group.
type Snapshot []MemberAmount

// Transfer is one point-to-point payment that settles debt.
type Transfer struct {
	// Debtor is who pays.
	Debtor string
	// Creditor is who receives.
	Creditor string
	// Payment is always strictly positive.
	Payment money.Money
}
