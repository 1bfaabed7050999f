package transactions_repo

import (
	"context"
	"time"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
)

type TransactionRepository interface {
	Create(ctx context.Context, q domain.Querier, txn *domain.Transaction) error
	GetByTransactionID(ctx context.Context, q domain.Querier, transactionID string) (*domain.Transaction, error)
	// GetByTransactionIDForUpdate locks the transaction row so a status
	// check and the transition it guards share one boundary.
	GetByTransactionIDForUpdate(ctx context.Context, q domain.Querier, transactionID string) (*domain.Transaction, error)
	// ListProcessingBefore returns externally-routed transactions still
	// PROCESSING whose debit committed at or before cutoff.
	ListProcessingBefore(ctx context.Context, q domain.Querier, cutoff time.Time, limit int) ([]domain.Transaction, error)
	// CompleteProcessing and FinalizeProcessing transition a transaction
	// out of PROCESSING. Both are guarded on the current status: a replay
	// against a transaction already in a terminal state affects zero rows
	// and reports transitioned=false.
	CompleteProcessing(ctx context.Context, q domain.Querier, transactionID, receiptNumber string) (transitioned bool, err error)
	FinalizeProcessing(ctx context.Context, q domain.Querier, transactionID string, status domain.TransactionStatus, failureReason string) (transitioned bool, err error)
}
