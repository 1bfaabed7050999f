package outbox_repo

import (
	"context"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
)

type OutboxRepository interface {
	CreateMessage(ctx context.Context, q domain.Querier, msg *domain.OutboxMessage) error
	GetPendingMessages(ctx context.Context, q domain.Querier, limit int) ([]domain.OutboxMessage, error)
	UpdateMessageStatus(ctx context.Context, q domain.Querier, id string, status domain.OutboxMessageStatus) error
}
