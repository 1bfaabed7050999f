package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
	kafka_infra "github.com/peterclermy232/banking-system-backend/internal/infrastructure/kafka"
	"github.com/peterclermy232/banking-system-backend/internal/repository/outbox_repo"
	"github.com/peterclermy232/banking-system-backend/internal/storage"
)

// Processor drains the notification outbox to Kafka. Notification events
// are written by the ledger in the same store transaction as the balance
// mutation; this loop delivers them afterwards, so a broker outage can
// delay alerts but never touch a committed ledger operation.
type Processor struct {
	store        storage.Store
	outboxRepo   outbox_repo.OutboxRepository
	producer     kafka_infra.Producer
	pollInterval time.Duration
	batchSize    int
	logger       *zap.Logger
}

func NewProcessor(
	store storage.Store,
	outboxRepo outbox_repo.OutboxRepository,
	producer kafka_infra.Producer,
	pollInterval time.Duration,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		store:        store,
		outboxRepo:   outboxRepo,
		producer:     producer,
		pollInterval: pollInterval,
		batchSize:    25,
		logger:       logger,
	}
}

// Start blocks until ctx is cancelled, publishing pending messages every
// poll interval.
func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("outbox processor started",
		zap.Duration("poll_interval", p.pollInterval))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor stopping")
			return
		case <-ticker.C:
			p.publishPending(ctx)
		}
	}
}

func (p *Processor) publishPending(ctx context.Context) {
	err := p.store.WithinTx(ctx, func(q domain.Querier) error {
		messages, err := p.outboxRepo.GetPendingMessages(ctx, q, p.batchSize)
		if err != nil {
			return err
		}
		for _, msg := range messages {
			if err := p.producer.Produce(ctx, msg.MemberNumber, msg.Payload); err != nil {
				// Leave the message PENDING; the next cycle retries it.
				p.logger.Error("failed to publish notification",
					zap.String("message_id", msg.ID),
					zap.Error(err))
				continue
			}
			if err := p.outboxRepo.UpdateMessageStatus(ctx, q, msg.ID, domain.OutboxStatusSent); err != nil {
				return err
			}
			p.logger.Debug("notification published",
				zap.String("message_id", msg.ID),
				zap.String("member_number", msg.MemberNumber))
		}
		return nil
	})
	if err != nil {
		p.logger.Error("outbox publish cycle failed", zap.Error(err))
	}
}
