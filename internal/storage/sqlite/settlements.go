package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/models"
)

const transactionColumns = "id, group_id, expense_id, debtor_id, creditor_id, payment, kind, created_at, created_by, note"

// InsertTransaction appends a row to the settlement transaction log.
func (t *sqliteTx) InsertTransaction(ctx context.Context, txn *models.SettlementTransaction) error {
	// Generate ID if not set
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}

	_, err := t.q.ExecContext(ctx,
		"INSERT INTO settlement_transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		txn.ID, txn.GroupID, nullString(txn.ExpenseID), txn.Debtor, txn.Creditor,
		txn.Payment, string(txn.Kind), txn.CreatedAt, txn.CreatedBy, nullString(txn.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// DeleteProposedTransactions removes the proposed rows derived from an expense.
func (t *sqliteTx) DeleteProposedTransactions(ctx context.Context, expenseID string) (int64, error) {
	result, err := t.q.ExecContext(ctx,
		"DELETE FROM settlement_transactions WHERE expense_id = ? AND kind = ?",
		expenseID, string(models.KindProposed),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete proposed transactions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// ListTransactionsByGroup retrieves a group's transactions of one kind, oldest first.
func (q queries) ListTransactionsByGroup(ctx context.Context, groupID string, kind models.TransactionKind) ([]*models.SettlementTransaction, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM settlement_transactions WHERE group_id = ? AND kind = ? ORDER BY created_at, rowid",
		groupID, string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by group: %w", err)
	}
	return scanTransactions(rows)
}

// ListTransactionsByExpense retrieves every transaction tagged with an expense.
func (q queries) ListTransactionsByExpense(ctx context.Context, expenseID string) ([]*models.SettlementTransaction, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM settlement_transactions WHERE expense_id = ? ORDER BY created_at, rowid",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by expense: %w", err)
	}
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*models.SettlementTransaction, error) {
	defer rows.Close()

	var txns []*models.SettlementTransaction
	for rows.Next() {
		var (
			txn       models.SettlementTransaction
			expenseID sql.NullString
			note      sql.NullString
			kind      string
		)
		if err := rows.Scan(&txn.ID, &txn.GroupID, &expenseID, &txn.Debtor, &txn.Creditor,
			&txn.Payment, &kind, &txn.CreatedAt, &txn.CreatedBy, &note); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.ExpenseID = expenseID.String
		txn.Note = note.String
		txn.Kind = models.TransactionKind(kind)
		txns = append(txns, &txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}
