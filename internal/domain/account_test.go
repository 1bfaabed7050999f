package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCanDebit(t *testing.T) {
	acc := Account{
		Balance:        decimal.RequireFromString("5000.00"),
		MinimumBalance: decimal.RequireFromString("1000.00"),
	}

	tests := []struct {
		total string
		want  bool
	}{
		{"4000.00", true},
		{"4000.01", false},
		{"5000.00", false},
		{"0.01", true},
	}
	for _, tt := range tests {
		if got := acc.CanDebit(decimal.RequireFromString(tt.total)); got != tt.want {
			t.Errorf("CanDebit(%s) = %v, want %v", tt.total, got, tt.want)
		}
	}

	if got := acc.AvailableBalance(); !got.Equal(decimal.RequireFromString("4000.00")) {
		t.Errorf("AvailableBalance() = %s, want 4000.00", got)
	}
}

func TestIsActive(t *testing.T) {
	for _, s := range []AccountStatus{AccountStatusFrozen, AccountStatusBlocked, AccountStatusClosed} {
		acc := Account{Status: s}
		if acc.IsActive() {
			t.Errorf("IsActive() = true for %s", s)
		}
	}
	acc := Account{Status: AccountStatusActive}
	if !acc.IsActive() {
		t.Error("IsActive() = false for ACTIVE")
	}
}

func TestSavingsGoalApplyDeposit(t *testing.T) {
	goal := SavingsGoal{
		TargetAmount: decimal.RequireFromString("10000"),
		Status:       GoalStatusActive,
	}
	now := time.Now()

	if completed := goal.ApplyDeposit(decimal.RequireFromString("4000"), now); completed {
		t.Error("goal completed below target")
	}
	if goal.Status != GoalStatusActive {
		t.Errorf("status = %s, want ACTIVE", goal.Status)
	}

	// Crossing the target completes the goal; the excess is kept.
	if completed := goal.ApplyDeposit(decimal.RequireFromString("7000"), now); !completed {
		t.Error("goal not completed at target")
	}
	if !goal.CurrentAmount.Equal(decimal.RequireFromString("11000")) {
		t.Errorf("current amount = %s, want 11000", goal.CurrentAmount)
	}
	if goal.Status != GoalStatusCompleted || goal.CompletedAt == nil {
		t.Errorf("status = %s, completedAt = %v", goal.Status, goal.CompletedAt)
	}

	// Further deposits on a completed goal accumulate without a second
	// completion signal.
	if completed := goal.ApplyDeposit(decimal.RequireFromString("500"), now); completed {
		t.Error("completed goal signalled completion again")
	}
	if !goal.CurrentAmount.Equal(decimal.RequireFromString("11500")) {
		t.Errorf("current amount = %s, want 11500", goal.CurrentAmount)
	}
}
