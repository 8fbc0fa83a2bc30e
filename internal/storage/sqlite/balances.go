package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

// UpsertExpenseBalance sets a member's balance for an expense, replacing any
// previous value.
func (t *sqliteTx) UpsertExpenseBalance(ctx context.Context, expenseID, memberID string, balance money.Money) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO expense_balances (expense_id, member_id, balance) VALUES (?, ?, ?)
		 ON CONFLICT (expense_id, member_id) DO UPDATE SET balance = excluded.balance`,
		expenseID, memberID, balance,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert expense balance: %w", err)
	}
	return nil
}

// DeleteExpenseBalances removes every balance row of an expense.
func (t *sqliteTx) DeleteExpenseBalances(ctx context.Context, expenseID string) error {
	if _, err := t.q.ExecContext(ctx, "DELETE FROM expense_balances WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete expense balances: %w", err)
	}
	return nil
}

// GetGroupBalance returns a member's running balance; untouched members are zero.
func (t *sqliteTx) GetGroupBalance(ctx context.Context, groupID, memberID string) (money.Money, error) {
	var balance money.Money
	err := t.q.QueryRowContext(ctx,
		"SELECT balance FROM group_balances WHERE group_id = ? AND member_id = ?",
		groupID, memberID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return money.Zero, nil
	}
	if err != nil {
		return money.Zero, fmt.Errorf("failed to get group balance: %w", err)
	}
	return balance, nil
}

// PutGroupBalance writes a member's running balance, creating the row lazily.
func (t *sqliteTx) PutGroupBalance(ctx context.Context, groupID, memberID string, balance money.Money) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO group_balances (group_id, member_id, balance) VALUES (?, ?, ?)
		 ON CONFLICT (group_id, member_id) DO UPDATE SET balance = excluded.balance`,
		groupID, memberID, balance,
	)
	if err != nil {
		return fmt.Errorf("failed to write group balance: %w", err)
	}
	return nil
}

// SumGroupBalances adds up every running balance of a group.
func (t *sqliteTx) SumGroupBalances(ctx context.Context, groupID string) (money.Money, error) {
	var sum money.Money
	err := t.q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(balance), 0) FROM group_balances WHERE group_id = ?",
		groupID,
	).Scan(&sum)
	if err != nil {
		return money.Zero, fmt.Errorf("failed to sum group balances: %w", err)
	}
	return sum, nil
}

// SumExpenseBalances adds up the balance rows of an expense.
func (t *sqliteTx) SumExpenseBalances(ctx context.Context, expenseID string) (money.Money, error) {
	var sum money.Money
	err := t.q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(balance), 0) FROM expense_balances WHERE expense_id = ?",
		expenseID,
	).Scan(&sum)
	if err != nil {
		return money.Zero, fmt.Errorf("failed to sum expense balances: %w", err)
	}
	return sum, nil
}

// ExpenseBalances returns the balances of one expense in write order.
func (q queries) ExpenseBalances(ctx context.Context, expenseID string) ([]models.ExpenseBalance, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT expense_id, member_id, balance FROM expense_balances WHERE expense_id = ? ORDER BY rowid",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense balances: %w", err)
	}
	defer rows.Close()

	var balances []models.ExpenseBalance
	for rows.Next() {
		var b models.ExpenseBalance
		if err := rows.Scan(&b.ExpenseID, &b.MemberID, &b.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan expense balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense balances: %w", err)
	}
	return balances, nil
}

// ExpenseBalancesByGroup returns the deltas of every expense in a group,
// oldest expense first.
func (q queries) ExpenseBalancesByGroup(ctx context.Context, groupID string) ([]models.Deltas, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT b.expense_id, b.member_id, b.balance
		 FROM expense_balances b
		 JOIN expenses e ON e.id = b.expense_id
		 WHERE e.group_id = ?
		 ORDER BY e.created_at, e.rowid, b.rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group expense balances: %w", err)
	}
	defer rows.Close()

	var (
		all     []models.Deltas
		current string
	)
	for rows.Next() {
		var (
			expenseID string
			entry     models.MemberAmount
		)
		if err := rows.Scan(&expenseID, &entry.MemberID, &entry.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense balance: %w", err)
		}
		if expenseID != current || len(all) == 0 {
			all = append(all, nil)
			current = expenseID
		}
		all[len(all)-1] = append(all[len(all)-1], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense balances: %w", err)
	}
	return all, nil
}

// GroupBalances returns the running balances of a group in first-touch order.
func (q queries) GroupBalances(ctx context.Context, groupID string) ([]models.GroupBalance, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT group_id, member_id, balance FROM group_balances WHERE group_id = ? ORDER BY rowid",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group balances: %w", err)
	}
	defer rows.Close()

	var balances []models.GroupBalance
	for rows.Next() {
		var b models.GroupBalance
		if err := rows.Scan(&b.GroupID, &b.MemberID, &b.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan group balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group balances: %w", err)
	}
	return balances, nil
}
