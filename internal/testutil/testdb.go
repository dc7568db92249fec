package testutil

import (
	"database/sql"
	"testing"

	"github.com/lianhaeming/renoguard/internal/db"
)

// NewTestDB opens a migrated in-memory cache database that is closed when
// the test finishes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW creates a UnitOfWork over the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
