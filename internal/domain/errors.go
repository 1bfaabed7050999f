package domain

import (
	"errors"
	"fmt"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrAccountAlreadyExists = errors.New("account already exists")
var ErrAccountNotActive = errors.New("account is not active")
var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrNotAccountOwner = errors.New("caller does not own the source account")
var ErrInvalidAmount = errors.New("amount must be greater than zero")
var ErrMissingField = errors.New("required field is missing")
var ErrTransactionNotFound = errors.New("transaction not found")
var ErrSavingsGoalNotFound = errors.New("savings goal not found")
var ErrSameAccount = errors.New("source and destination accounts are the same")

// GatewayError is returned when the external settlement rail rejects a
// transfer or does not answer in time. It is only reachable after the
// debit phase has committed, so every GatewayError triggers compensation.
type GatewayError struct {
	Rail    string
	Timeout bool
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("settlement gateway %s timed out: %v", e.Rail, e.Err)
	}
	return fmt.Sprintf("settlement gateway %s failed: %v", e.Rail, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
