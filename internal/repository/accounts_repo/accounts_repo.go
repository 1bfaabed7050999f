package accounts_repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
)

type accountRepository struct{}

func NewAccountRepository() AccountRepository {
	return &accountRepository{}
}

const accountColumns = `id, account_number, account_type, balance, minimum_balance,
		interest_rate, status, member_id, member_number, created_at, updated_at, closed_at`

func (r *accountRepository) Create(ctx context.Context, q domain.Querier, account *domain.Account) error {
	query := `
		INSERT INTO accounts (account_number, account_type, balance, minimum_balance,
			interest_rate, status, member_id, member_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		account.AccountNumber, account.AccountType, account.Balance, account.MinimumBalance,
		account.InterestRate, account.Status, account.MemberID, account.MemberNumber,
		account.CreatedAt, account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return domain.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account %s: %w", account.AccountNumber, err)
	}
	return nil
}

func (r *accountRepository) GetByNumber(ctx context.Context, q domain.Querier, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return r.scanAccount(q.QueryRowContext(ctx, query, accountNumber), accountNumber)
}

func (r *accountRepository) GetByNumberForUpdate(ctx context.Context, q domain.Querier, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1 FOR UPDATE`
	return r.scanAccount(q.QueryRowContext(ctx, query, accountNumber), accountNumber)
}

func (r *accountRepository) GetByIDForUpdate(ctx context.Context, q domain.Querier, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.scanAccount(q.QueryRowContext(ctx, query, id), fmt.Sprintf("id=%d", id))
}

func (r *accountRepository) scanAccount(row *sql.Row, ref string) (*domain.Account, error) {
	account := &domain.Account{}
	var closedAt sql.NullTime
	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.AccountType,
		&account.Balance,
		&account.MinimumBalance,
		&account.InterestRate,
		&account.Status,
		&account.MemberID,
		&account.MemberNumber,
		&account.CreatedAt,
		&account.UpdatedAt,
		&closedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", ref, err)
	}
	if closedAt.Valid {
		account.ClosedAt = &closedAt.Time
	}
	return account, nil
}

func (r *accountRepository) ApplyBalanceChange(ctx context.Context, q domain.Querier, accountID int64, delta decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = $2
		WHERE id = $3
	`
	res, err := q.ExecContext(ctx, query, delta, time.Now(), accountID)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", accountID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) Close(ctx context.Context, q domain.Querier, accountID int64) error {
	query := `
		UPDATE accounts
		SET status = $1, closed_at = $2, updated_at = $2
		WHERE id = $3 AND balance = 0
	`
	res, err := q.ExecContext(ctx, query, domain.AccountStatusClosed, time.Now(), accountID)
	if err != nil {
		return fmt.Errorf("failed to close account %d: %w", accountID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %d not found or balance is not zero", accountID)
	}
	return nil
}
