package settlement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
	"github.com/peterclermy232/banking-system-backend/internal/ledger"
	"github.com/peterclermy232/banking-system-backend/internal/repository/transactions_repo"
	"github.com/peterclermy232/banking-system-backend/internal/storage"
)

// Worker drives phase two of the external-transfer protocol. It polls for
// transactions the engine left PROCESSING, invokes the settlement rail
// with the transaction id as idempotency key, and records the outcome via
// the engine. No account lock is held while the gateway call is in
// flight: the debit committed in phase one, and every finalization is
// guarded so a crashed or duplicated worker cycle cannot apply twice.
type Worker struct {
	store        storage.Store
	txns         transactions_repo.TransactionRepository
	engine       *ledger.Engine
	gateway      Gateway
	pollInterval time.Duration
	grace        time.Duration
	staleAfter   time.Duration
	batchSize    int
	logger       *zap.Logger
}

func NewWorker(
	store storage.Store,
	txns transactions_repo.TransactionRepository,
	engine *ledger.Engine,
	gateway Gateway,
	pollInterval, grace, staleAfter time.Duration,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		store:        store,
		txns:         txns,
		engine:       engine,
		gateway:      gateway,
		pollInterval: pollInterval,
		grace:        grace,
		staleAfter:   staleAfter,
		batchSize:    10,
		logger:       logger,
	}
}

// Start blocks until ctx is cancelled, settling pending transfers every
// poll interval.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("settlement worker started",
		zap.Duration("poll_interval", w.pollInterval))
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("settlement worker stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single settlement cycle.
func (w *Worker) RunOnce(ctx context.Context) {
	cutoff := time.Now().Add(-w.grace)
	txns, err := w.txns.ListProcessingBefore(ctx, w.store.Querier(), cutoff, w.batchSize)
	if err != nil {
		w.logger.Error("failed to list processing transactions", zap.Error(err))
		return
	}

	for _, txn := range txns {
		w.settle(ctx, txn)
	}
}

// settle runs one gateway attempt for one transaction. Success completes
// the transaction; a gateway error or timeout triggers compensation. A
// transfer that sat PROCESSING past the stale threshold is compensated as
// REVERSED rather than FAILED, because the member saw the debit long ago.
func (w *Worker) settle(ctx context.Context, txn domain.Transaction) {
	rail := ledger.RailInterbank
	if txn.TransactionType == domain.TransactionTypeMobileMoney {
		rail = ledger.RailMobileMoney
	}

	receipt, err := w.gateway.SendMoney(ctx, SendRequest{
		TransactionID: txn.TransactionID,
		Rail:          rail,
		Destination:   txn.ExternalReference,
		Amount:        txn.Amount,
		Memo:          txn.Memo,
	})
	if err != nil {
		finalStatus := domain.TransactionStatusFailed
		if time.Since(txn.CreatedAt) > w.staleAfter {
			finalStatus = domain.TransactionStatusReversed
		}
		w.logger.Warn("settlement failed, compensating",
			zap.String("transaction_id", txn.TransactionID),
			zap.String("final_status", string(finalStatus)),
			zap.Error(err))
		if compErr := w.engine.CompensateExternal(ctx, txn.TransactionID, finalStatus, err.Error()); compErr != nil {
			// Left PROCESSING; the next cycle retries the compensation.
			w.logger.Error("compensation failed, will retry",
				zap.String("transaction_id", txn.TransactionID),
				zap.Error(compErr))
		}
		return
	}

	if err := w.engine.CompleteExternal(ctx, txn.TransactionID, receipt); err != nil {
		// The rail settled the money but our record still says
		// PROCESSING. The idempotency key makes the next cycle's
		// gateway call a safe replay that returns the same receipt.
		w.logger.Error("failed to record settlement, will retry",
			zap.String("transaction_id", txn.TransactionID),
			zap.String("receipt_number", receipt),
			zap.Error(err))
		return
	}

	w.logger.Info("external transfer settled",
		zap.String("transaction_id", txn.TransactionID),
		zap.String("receipt_number", receipt))
}
