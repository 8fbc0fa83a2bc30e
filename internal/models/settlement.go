package models

import "github.com/mmynk/groupledger/internal/money"

// TransactionKind distinguishes computed suggestions from real payments.
type TransactionKind string

const (
	// KindProposed rows are derived from an expense and regenerated whenever
	// it changes.
	KindProposed TransactionKind = "P"
	// KindActual rows record confirmed money movements and are never modified.
	KindActual TransactionKind = "A"
)

// String returns the human readable kind.
func (k TransactionKind) String() string {
	switch k {
	case KindProposed:
		return "proposed"
	case KindActual:
		return "actual"
	default:
		return string(k)
	}
}

// SettlementTransaction is one row of the append-only transaction log.
type SettlementTransaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// GroupID is the group this transaction belongs to.
	GroupID string

	// ExpenseID links the row to an expense. Empty for real payments that
	// settle across expenses.
	ExpenseID string

	// Debtor is the member who pays.
	Debtor string

	// Creditor is the member who receives the payment.
	Creditor string

	// Payment is always strictly positive.
	Payment money.Money

	Kind TransactionKind

	// CreatedAt is the Unix timestamp when the row was written.
	CreatedAt int64

	// CreatedBy is the member who recorded an actual payment.
	CreatedBy string

	// Note is an optional description for actual payments.
	Note string
}
