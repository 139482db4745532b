// Package postgres is the PostgreSQL expenditure store. Every unit of work
// is one SQL transaction; rows read for a decision are locked with
// SELECT ... FOR UPDATE until commit.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"treasury/internal/expenditure/service"
	dErrors "treasury/pkg/domain-errors"
	"treasury/pkg/platform/sentinel"
	txcontext "treasury/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// PostgresStore implements service.StoreTx.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

type Option func(*PostgresStore)

// WithTxTimeout bounds units of work whose context has no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *PostgresStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(db *sql.DB, opts ...Option) *PostgresStore {
	s := &PostgresStore{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTx runs fn in a read-committed transaction. The transaction travels
// in the context handed to fn, so other Postgres-backed stores (the audit
// outbox) write through it.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, stores service.Stores) error) error {
	return s.run(ctx, nil, true, fn)
}

// View runs fn in a read-only repeatable-read transaction.
func (s *PostgresStore) View(ctx context.Context, fn func(ctx context.Context, stores service.Stores) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}, false, fn)
}

func (s *PostgresStore) run(ctx context.Context, opts *sql.TxOptions, forUpdate bool, fn func(ctx context.Context, stores service.Stores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sqlTx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	v := &view{q: sqlTx, forUpdate: forUpdate}
	if err = fn(txcontext.WithTx(ctx, sqlTx), v); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if _, coded := dErrors.As(err); !coded {
				return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
			}
		}
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}

// view binds the stores to one SQL transaction. forUpdate is false for
// read-only views, which cannot take row locks.
type view struct {
	q         txcontext.Executor
	forUpdate bool
}

func (v *view) Expenditures() service.ExpenditureStore { return expenditures{v} }
func (v *view) Pots() service.FundingPotLedger         { return pots{v} }
func (v *view) Payouts() service.PayoutTable           { return payouts{v} }
func (v *view) Assets() service.AssetLedger            { return assets{v} }

func (v *view) lockClause() string {
	if v.forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

// nextValue increments the named counter. The counter row stays locked until
// commit, and a rollback restores it, so ids are gapless.
func (v *view) nextValue(ctx context.Context, name string) (uint64, error) {
	var value int64
	err := v.q.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value
	`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return uint64(value), nil
}

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// translate maps constraint violations onto sentinel facts.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
