package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/lianhaeming/renoguard/internal/db"
)

// FailOnNthExecUoW is a UnitOfWork that fails the Nth write inside the
// transaction. The snapshot save writes the header plus six stage rows in
// one pass; failing mid-sequence proves the cache rolls back whole.
//
// Writes are counted from 1. Reads pass through uncounted.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &execCounter{DBTX: tx, failOn: u.FailOn, err: u.Err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type execCounter struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (c *execCounter) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if c.count.Add(1) == c.failOn {
		return nil, c.err
	}
	return c.DBTX.ExecContext(ctx, query, args...)
}
