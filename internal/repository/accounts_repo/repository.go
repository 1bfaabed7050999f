package accounts_repo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, q domain.Querier, account *domain.Account) error
	GetByNumber(ctx context.Context, q domain.Querier, accountNumber string) (*domain.Account, error)
	// GetByNumberForUpdate locks the account row until the surrounding
	// transaction ends. Two-account operations must call it in canonical
	// order (ascending account number) to avoid deadlock.
	GetByNumberForUpdate(ctx context.Context, q domain.Querier, accountNumber string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, q domain.Querier, id int64) (*domain.Account, error)
	ApplyBalanceChange(ctx context.Context, q domain.Querier, accountID int64, delta decimal.Decimal) error
	Close(ctx context.Context, q domain.Querier, accountID int64) error
}
