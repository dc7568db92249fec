package db_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/lianhaeming/renoguard/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestUoW(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database)
}

func insertLogEntry(ctx context.Context, tx db.DBTX, id string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO stage_log (id, stage_key, from_status, to_status, origin, ts)
		VALUES (?, 'material', 'in_progress', 'completed', 'local', '2025-03-03T00:00:00Z')`, id)
	return err
}

func countLogEntries(t *testing.T, uow *db.SQLiteUnitOfWork) int {
	t.Helper()
	var n int
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM stage_log`).Scan(&n)
	})
	require.NoError(t, err)
	return n
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	uow := openTestUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return insertLogEntry(ctx, tx, "log-1")
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countLogEntries(t, uow))
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow := openTestUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertLogEntry(ctx, tx, "log-2"); err != nil {
			return err
		}
		return fmt.Errorf("deliberate failure")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliberate failure")

	assert.Zero(t, countLogEntries(t, uow), "write must not survive the rollback")
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow := openTestUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertLogEntry(ctx, tx, "log-3")
			panic("boom")
		})
	})

	assert.Zero(t, countLogEntries(t, uow), "write must not survive the panic")
}
