package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
)

// Store provides the atomic multi-record write primitive the ledger relies
// on: every balance mutation and its Transaction row commit together or
// not at all.
type Store interface {
	WithinTx(ctx context.Context, fn func(q domain.Querier) error) error
	Querier() domain.Querier
}

type sqlStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return &sqlStore{db: db}
}

func (s *sqlStore) Querier() domain.Querier {
	return s.db
}

// WithinTx runs fn inside a serializable unit of work. Row locks taken by
// fn (SELECT ... FOR UPDATE) are held until commit or rollback, so checks
// and the mutations they guard share one boundary.
func (s *sqlStore) WithinTx(ctx context.Context, fn func(q domain.Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
