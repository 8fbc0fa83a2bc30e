package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
)

const expenseColumns = "id, group_id, title, description, payer_id, amount, added_by, created_at, updated_at"

// CreateExpense persists a new expense and its participants.
func (t *sqliteTx) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = expense.CreatedAt

	_, err := t.q.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.GroupID, expense.Title, expense.Description, expense.PayerID,
		expense.Amount, expense.AddedBy, expense.CreatedAt, expense.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: expense titled %q already exists in the group", storage.ErrConflict, expense.Title)
		}
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	return t.insertParticipants(ctx, expense)
}

// UpdateExpense replaces an expense's fields and participants.
func (t *sqliteTx) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().Unix()

	result, err := t.q.ExecContext(ctx,
		`UPDATE expenses SET title = ?, description = ?, payer_id = ?, amount = ?, updated_at = ?
		 WHERE id = ?`,
		expense.Title, expense.Description, expense.PayerID, expense.Amount, expense.UpdatedAt, expense.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: expense titled %q already exists in the group", storage.ErrConflict, expense.Title)
		}
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if err := expectOneRow(result, "expense", expense.ID); err != nil {
		return err
	}

	// Delete existing participants (will re-insert)
	if _, err := t.q.ExecContext(ctx, "DELETE FROM expense_participants WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to delete participants: %w", err)
	}

	return t.insertParticipants(ctx, expense)
}

func (t *sqliteTx) insertParticipants(ctx context.Context, expense *models.Expense) error {
	for i, p := range expense.Participants {
		_, err := t.q.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, member_id, paid, position) VALUES (?, ?, ?, ?)",
			expense.ID, p.MemberID, p.PaidAmt, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}

// DeleteExpense removes an expense. Proposed transactions are deleted, actual
// ones are detached, balances and participants cascade.
func (t *sqliteTx) DeleteExpense(ctx context.Context, expenseID string) error {
	if _, err := t.DeleteProposedTransactions(ctx, expenseID); err != nil {
		return err
	}
	if _, err := t.q.ExecContext(ctx,
		"UPDATE settlement_transactions SET expense_id = NULL WHERE expense_id = ?",
		expenseID,
	); err != nil {
		return fmt.Errorf("failed to detach transactions: %w", err)
	}

	result, err := t.q.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return expectOneRow(result, "expense", expenseID)
}

// GetExpense retrieves an expense by ID, including its participants.
func (q queries) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(q.q.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
		expenseID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := q.loadParticipants(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup retrieves all expenses of a group, newest first.
func (q queries) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY created_at DESC, rowid DESC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		if err := q.loadParticipants(ctx, expense); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (q queries) loadParticipants(ctx context.Context, expense *models.Expense) error {
	rows, err := q.q.QueryContext(ctx,
		"SELECT member_id, paid FROM expense_participants WHERE expense_id = ? ORDER BY position",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.MemberID, &p.PaidAmt); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		expense.Participants = append(expense.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	err := row.Scan(&e.ID, &e.GroupID, &e.Title, &e.Description, &e.PayerID,
		&e.Amount, &e.AddedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}
