// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// Store defines the persistence boundary of the ledger.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger.
type Store interface {
	Reader

	// WithTx runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back otherwise. Implementations must serialise
	// concurrent writers so that read-modify-write of balance rows is atomic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// Reader holds the read operations. On a Store they see committed state; on a
// Tx they also see the transaction's own writes.
type Reader interface {
	// GetGroup retrieves a group with its members.
	// Returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByMember returns every group memberID belongs to.
	ListGroupsByMember(ctx context.Context, memberID string) ([]*models.Group, error)

	// ListMembers returns the member IDs of a group in join order.
	ListMembers(ctx context.Context, groupID string) ([]string, error)

	// GetExpense retrieves an expense with its participants.
	// Returns ErrNotFound if the expense does not exist.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns the expenses of a group, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ExpenseBalances returns the per-member balances of one expense in the
	// order they were written.
	ExpenseBalances(ctx context.Context, expenseID string) ([]models.ExpenseBalance, error)

	// ExpenseBalancesByGroup returns the per-expense deltas of every expense in
	// a group, oldest expense first.
	ExpenseBalancesByGroup(ctx context.Context, groupID string) ([]models.Deltas, error)

	// GroupBalances returns the running balances of a group in first-touch order.
	GroupBalances(ctx context.Context, groupID string) ([]models.GroupBalance, error)

	// ListTransactionsByGroup returns the group's settlement transactions of the
	// given kind, oldest first.
	ListTransactionsByGroup(ctx context.Context, groupID string, kind models.TransactionKind) ([]*models.SettlementTransaction, error)

	// ListTransactionsByExpense returns every transaction tagged with expenseID.
	ListTransactionsByExpense(ctx context.Context, expenseID string) ([]*models.SettlementTransaction, error)
}

// Tx is a unit of work. All ledger mutations go through a Tx so they commit or
// roll back together.
type Tx interface {
	Reader

	CreateGroup(ctx context.Context, group *models.Group) error
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, groupID string) error
	AddMember(ctx context.Context, member *models.Member) error
	RemoveMember(ctx context.Context, groupID, memberID string) error

	// CreateExpense persists an expense and its participants.
	// Returns ErrConflict if the title is already used in the group.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// UpdateExpense replaces an expense's fields and participants.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense. Its balances and proposed transactions
	// go with it; actual transactions keep existing with the link cleared.
	DeleteExpense(ctx context.Context, expenseID string) error

	// UpsertExpenseBalance sets one member's balance for an expense.
	UpsertExpenseBalance(ctx context.Context, expenseID, memberID string, balance money.Money) error

	// DeleteExpenseBalances removes every balance row of an expense.
	DeleteExpenseBalances(ctx context.Context, expenseID string) error

	// GetGroupBalance returns a member's running balance, zero if untouched.
	GetGroupBalance(ctx context.Context, groupID, memberID string) (money.Money, error)

	// PutGroupBalance writes a member's running balance, creating the row on
	// first touch.
	PutGroupBalance(ctx context.Context, groupID, memberID string, balance money.Money) error

	// SumGroupBalances adds every running balance of a group.
	SumGroupBalances(ctx context.Context, groupID string) (money.Money, error)

	// SumExpenseBalances adds every balance row of an expense.
	SumExpenseBalances(ctx context.Context, expenseID string) (money.Money, error)

	// InsertTransaction appends a settlement transaction.
	InsertTransaction(ctx context.Context, txn *models.SettlementTransaction) error

	// DeleteProposedTransactions removes the proposed rows of an expense and
	// returns how many were removed.
	DeleteProposedTransactions(ctx context.Context, expenseID string) (int64, error)
}
