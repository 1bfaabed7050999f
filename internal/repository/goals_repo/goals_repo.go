package goals_repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
)

type savingsGoalRepository struct{}

func NewSavingsGoalRepository() SavingsGoalRepository {
	return &savingsGoalRepository{}
}

func (r *savingsGoalRepository) Create(ctx context.Context, q domain.Querier, goal *domain.SavingsGoal) error {
	query := `
		INSERT INTO savings_goals (member_id, member_number, name, description,
			target_amount, current_amount, target_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var targetDate sql.NullTime
	if goal.TargetDate != nil {
		targetDate = sql.NullTime{Time: *goal.TargetDate, Valid: true}
	}
	err := q.QueryRowContext(ctx, query,
		goal.MemberID, goal.MemberNumber, goal.Name, goal.Description,
		goal.TargetAmount, goal.CurrentAmount, targetDate, goal.Status,
		goal.CreatedAt, goal.UpdatedAt,
	).Scan(&goal.ID)
	if err != nil {
		return fmt.Errorf("failed to create savings goal %q: %w", goal.Name, err)
	}
	return nil
}

func (r *savingsGoalRepository) GetForMemberForUpdate(ctx context.Context, q domain.Querier, goalID, memberID int64) (*domain.SavingsGoal, error) {
	query := `
		SELECT id, member_id, member_number, name, description, target_amount,
			current_amount, target_date, status, created_at, updated_at, completed_at
		FROM savings_goals
		WHERE id = $1 AND member_id = $2
		FOR UPDATE
	`
	goal := &domain.SavingsGoal{}
	var targetDate, completedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, goalID, memberID).Scan(
		&goal.ID, &goal.MemberID, &goal.MemberNumber, &goal.Name, &goal.Description,
		&goal.TargetAmount, &goal.CurrentAmount, &targetDate, &goal.Status,
		&goal.CreatedAt, &goal.UpdatedAt, &completedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSavingsGoalNotFound
		}
		return nil, fmt.Errorf("failed to get savings goal %d: %w", goalID, err)
	}
	if targetDate.Valid {
		goal.TargetDate = &targetDate.Time
	}
	if completedAt.Valid {
		goal.CompletedAt = &completedAt.Time
	}
	return goal, nil
}

func (r *savingsGoalRepository) Update(ctx context.Context, q domain.Querier, goal *domain.SavingsGoal) error {
	query := `
		UPDATE savings_goals
		SET current_amount = $1, status = $2, updated_at = $3, completed_at = $4
		WHERE id = $5
	`
	var completedAt sql.NullTime
	if goal.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *goal.CompletedAt, Valid: true}
	}
	res, err := q.ExecContext(ctx, query,
		goal.CurrentAmount, goal.Status, goal.UpdatedAt, completedAt, goal.ID)
	if err != nil {
		return fmt.Errorf("failed to update savings goal %d: %w", goal.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrSavingsGoalNotFound
	}
	return nil
}
