package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings      AccountType = "SAVINGS"
	AccountTypeCurrent      AccountType = "CURRENT"
	AccountTypeFixedDeposit AccountType = "FIXED_DEPOSIT"
	AccountTypeShareCapital AccountType = "SHARE_CAPITAL"
)

type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "ACTIVE"
	AccountStatusFrozen  AccountStatus = "FROZEN"
	AccountStatusBlocked AccountStatus = "BLOCKED"
	AccountStatusClosed  AccountStatus = "CLOSED"
)

// Account is a member-owned balance record. Balances are fixed-point at
// 2 decimal places and are mutated only by the ledger engine, always inside
// a store transaction that also writes the Transaction row.
type Account struct {
	ID             int64
	AccountNumber  string
	AccountType    AccountType
	Balance        decimal.Decimal
	MinimumBalance decimal.Decimal
	InterestRate   decimal.Decimal
	Status         AccountStatus
	MemberID       int64
	MemberNumber   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       *time.Time
}

func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// AvailableBalance is the portion of the balance eligible for debit:
// balance minus the enforced minimum balance.
func (a *Account) AvailableBalance() decimal.Decimal {
	return a.Balance.Sub(a.MinimumBalance)
}

// CanDebit reports whether debiting total (amount plus fee) keeps the
// account at or above its minimum balance.
func (a *Account) CanDebit(total decimal.Decimal) bool {
	return total.LessThanOrEqual(a.AvailableBalance())
}

func (a *Account) OwnedBy(memberID int64) bool {
	return a.MemberID == memberID
}
