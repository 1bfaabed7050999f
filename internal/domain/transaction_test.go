package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to TransactionStatus
		want     bool
	}{
		{TransactionStatusPending, TransactionStatusProcessing, true},
		{TransactionStatusPending, TransactionStatusCompleted, true},
		{TransactionStatusPending, TransactionStatusFailed, true},
		{TransactionStatusPending, TransactionStatusCancelled, true},
		{TransactionStatusPending, TransactionStatusReversed, false},
		{TransactionStatusProcessing, TransactionStatusCompleted, true},
		{TransactionStatusProcessing, TransactionStatusFailed, true},
		{TransactionStatusProcessing, TransactionStatusReversed, true},
		{TransactionStatusProcessing, TransactionStatusPending, false},
		{TransactionStatusFailed, TransactionStatusReversed, true},
		{TransactionStatusFailed, TransactionStatusCompleted, false},
		{TransactionStatusCompleted, TransactionStatusFailed, false},
		{TransactionStatusCompleted, TransactionStatusReversed, false},
		{TransactionStatusReversed, TransactionStatusCompleted, false},
		{TransactionStatusCancelled, TransactionStatusProcessing, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []TransactionStatus{
		TransactionStatusCompleted, TransactionStatusFailed,
		TransactionStatusCancelled, TransactionStatusReversed,
	}
	for _, s := range terminal {
		txn := Transaction{Status: s}
		if !txn.IsTerminal() {
			t.Errorf("IsTerminal() = false for %s", s)
		}
	}
	for _, s := range []TransactionStatus{TransactionStatusPending, TransactionStatusProcessing} {
		txn := Transaction{Status: s}
		if txn.IsTerminal() {
			t.Errorf("IsTerminal() = true for %s", s)
		}
	}
}

func TestTotalDebit(t *testing.T) {
	txn := Transaction{
		Amount: decimal.RequireFromString("15000"),
		Fee:    decimal.RequireFromString("20"),
	}
	if got := txn.TotalDebit(); !got.Equal(decimal.RequireFromString("15020")) {
		t.Errorf("TotalDebit() = %s, want 15020", got)
	}
}
