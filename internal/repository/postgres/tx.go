package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/TranslateGo/internal/repository"
	"github.com/utafrali/TranslateGo/pkg/database"
)

// Transactor implements repository.Transactor on a pgx pool.
type Transactor struct {
	pool database.Pool
}

// NewTransactor creates a Transactor.
func NewTransactor(pool database.Pool) *Transactor {
	return &Transactor{pool: pool}
}

// WithinTx runs fn in a READ COMMITTED transaction. Unique indexes, not
// isolation, keep concurrent resolutions from creating duplicates.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
		}
	}()

	repos := repository.Repositories{
		Accounts:   NewAccountRepository(tx),
		Identities: NewIdentityRepository(tx),
	}
	if err = fn(ctx, repos); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
