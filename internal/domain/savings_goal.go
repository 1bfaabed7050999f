package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "ACTIVE"
	GoalStatusCompleted GoalStatus = "COMPLETED"
	GoalStatusPaused    GoalStatus = "PAUSED"
	GoalStatusCancelled GoalStatus = "CANCELLED"
)

// SavingsGoal is a per-member sub-ledger annotation. Deposits linked to a
// goal increment CurrentAmount; the goal completes once the target is
// reached, independently of the account transaction's outcome.
type SavingsGoal struct {
	ID            int64
	MemberID      int64
	MemberNumber  string
	Name          string
	Description   string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    *time.Time
	Status        GoalStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// ApplyDeposit adds amount to the accumulated total and reports whether
// this deposit completed the goal. The total may exceed the target; the
// overflow is kept so the member sees everything they actually saved.
func (g *SavingsGoal) ApplyDeposit(amount decimal.Decimal, now time.Time) (completed bool) {
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	g.UpdatedAt = now
	if g.Status != GoalStatusCompleted && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = GoalStatusCompleted
		g.CompletedAt = &now
		return true
	}
	return false
}
