package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit            TransactionType = "DEPOSIT"
	TransactionTypeMobileMoneyDeposit TransactionType = "MOBILE_MONEY_DEPOSIT"
	TransactionTypeSavingsDeposit     TransactionType = "SAVINGS_DEPOSIT"
	TransactionTypeTransferInternal   TransactionType = "TRANSFER_INTERNAL"
	TransactionTypeTransferExternal   TransactionType = "TRANSFER_EXTERNAL"
	TransactionTypeMobileMoney        TransactionType = "MOBILE_MONEY_TRANSFER"
	TransactionTypeWithdrawal         TransactionType = "WITHDRAWAL"
)

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"
	TransactionStatusReversed   TransactionStatus = "REVERSED"
)

// Transaction is the immutable record of one money movement. At least one
// of FromAccountID/ToAccountID is set: deposits set only To, external
// transfers and withdrawals set only From, internal transfers set both.
// Accounts are referenced by id, never embedded, so a Transaction outlives
// account closure.
type Transaction struct {
	ID                string
	TransactionID     string
	TransactionType   TransactionType
	Amount            decimal.Decimal
	Fee               decimal.Decimal
	Status            TransactionStatus
	FromAccountID     *int64
	ToAccountID       *int64
	SavingsGoalID     *int64
	Memo              string
	Reference         string
	ExternalReference string
	ReceiptNumber     string
	FailureReason     string
	CreatedAt         time.Time
	ProcessedAt       *time.Time
}

// TotalDebit is the amount taken from the source account: amount plus fee.
func (t *Transaction) TotalDebit() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}

func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusFailed,
		TransactionStatusCancelled, TransactionStatusReversed:
		return true
	}
	return false
}

// CanTransition enforces the transaction state machine:
// PENDING → PROCESSING → {COMPLETED | FAILED | CANCELLED | REVERSED}.
// FAILED → REVERSED is allowed so a delayed compensation can be recorded
// on top of an already failed external transfer. Every other move out of a
// terminal status is rejected.
func CanTransition(from, to TransactionStatus) bool {
	switch from {
	case TransactionStatusPending:
		return to == TransactionStatusProcessing || to == TransactionStatusCompleted ||
			to == TransactionStatusFailed || to == TransactionStatusCancelled
	case TransactionStatusProcessing:
		return to == TransactionStatusCompleted || to == TransactionStatusFailed ||
			to == TransactionStatusCancelled || to == TransactionStatusReversed
	case TransactionStatusFailed:
		return to == TransactionStatusReversed
	}
	return false
}
