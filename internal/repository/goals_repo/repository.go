package goals_repo

import (
	"context"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
)

type SavingsGoalRepository interface {
	Create(ctx context.Context, q domain.Querier, goal *domain.SavingsGoal) error
	// GetForMemberForUpdate locks the goal row; the caller must own it.
	GetForMemberForUpdate(ctx context.Context, q domain.Querier, goalID, memberID int64) (*domain.SavingsGoal, error)
	Update(ctx context.Context, q domain.Querier, goal *domain.SavingsGoal) error
}
