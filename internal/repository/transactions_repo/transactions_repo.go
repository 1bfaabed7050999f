package transactions_repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
)

type transactionRepository struct{}

func NewTransactionRepository() TransactionRepository {
	return &transactionRepository{}
}

const transactionColumns = `id, transaction_id, transaction_type, amount, fee, status,
		from_account_id, to_account_id, savings_goal_id, memo, reference,
		external_reference, receipt_number, failure_reason, created_at, processed_at`

func (r *transactionRepository) Create(ctx context.Context, q domain.Querier, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, transaction_id, transaction_type, amount, fee, status,
			from_account_id, to_account_id, savings_goal_id, memo, reference,
			external_reference, receipt_number, failure_reason, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	var processedAt sql.NullTime
	if txn.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *txn.ProcessedAt, Valid: true}
	}
	_, err := q.ExecContext(ctx, query,
		txn.ID, txn.TransactionID, txn.TransactionType, txn.Amount, txn.Fee, txn.Status,
		txn.FromAccountID, txn.ToAccountID, txn.SavingsGoalID, txn.Memo, txn.Reference,
		txn.ExternalReference, txn.ReceiptNumber, txn.FailureReason, txn.CreatedAt, processedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

func (r *transactionRepository) GetByTransactionID(ctx context.Context, q domain.Querier, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`
	return scanTransaction(q.QueryRowContext(ctx, query, transactionID))
}

func (r *transactionRepository) GetByTransactionIDForUpdate(ctx context.Context, q domain.Querier, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1 FOR UPDATE`
	return scanTransaction(q.QueryRowContext(ctx, query, transactionID))
}

func (r *transactionRepository) ListProcessingBefore(ctx context.Context, q domain.Querier, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = $1 AND created_at <= $2
		ORDER BY created_at ASC
		LIMIT $3
	`
	rows, err := q.QueryContext(ctx, query, domain.TransactionStatusProcessing, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processing transactions: %w", err)
	}
	return txns, nil
}

func (r *transactionRepository) CompleteProcessing(ctx context.Context, q domain.Querier, transactionID, receiptNumber string) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $1, receipt_number = $2, processed_at = $3
		WHERE transaction_id = $4 AND status = $5
	`
	res, err := q.ExecContext(ctx, query,
		domain.TransactionStatusCompleted, receiptNumber, time.Now(),
		transactionID, domain.TransactionStatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete transaction %s: %w", transactionID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *transactionRepository) FinalizeProcessing(ctx context.Context, q domain.Querier, transactionID string, status domain.TransactionStatus, failureReason string) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $1, failure_reason = $2, processed_at = $3
		WHERE transaction_id = $4 AND status = $5
	`
	res, err := q.ExecContext(ctx, query,
		status, failureReason, time.Now(),
		transactionID, domain.TransactionStatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("failed to finalize transaction %s: %w", transactionID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func scanTransaction(row *sql.Row) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	var fromID, toID, goalID sql.NullInt64
	var processedAt sql.NullTime
	err := row.Scan(
		&txn.ID, &txn.TransactionID, &txn.TransactionType, &txn.Amount, &txn.Fee, &txn.Status,
		&fromID, &toID, &goalID, &txn.Memo, &txn.Reference,
		&txn.ExternalReference, &txn.ReceiptNumber, &txn.FailureReason, &txn.CreatedAt, &processedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	assignOptionals(txn, fromID, toID, goalID, processedAt)
	return txn, nil
}

func scanTransactionRows(rows *sql.Rows) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	var fromID, toID, goalID sql.NullInt64
	var processedAt sql.NullTime
	err := rows.Scan(
		&txn.ID, &txn.TransactionID, &txn.TransactionType, &txn.Amount, &txn.Fee, &txn.Status,
		&fromID, &toID, &goalID, &txn.Memo, &txn.Reference,
		&txn.ExternalReference, &txn.ReceiptNumber, &txn.FailureReason, &txn.CreatedAt, &processedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction row: %w", err)
	}
	assignOptionals(txn, fromID, toID, goalID, processedAt)
	return txn, nil
}

func assignOptionals(txn *domain.Transaction, fromID, toID, goalID sql.NullInt64, processedAt sql.NullTime) {
	if fromID.Valid {
		txn.FromAccountID = &fromID.Int64
	}
	if toID.Valid {
		txn.ToAccountID = &toID.Int64
	}
	if goalID.Valid {
		txn.SavingsGoalID = &goalID.Int64
	}
	if processedAt.Valid {
		txn.ProcessedAt = &processedAt.Time
	}
}
