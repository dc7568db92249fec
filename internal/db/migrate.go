package db

import (
	"database/sql"
	"fmt"
)

// migrations holds the full schema. Every statement is idempotent so the
// whole list re-runs safely on each startup.
var migrations = []string{
	// schedule_snapshot is a single-row record (id fixed at 1) holding the
	// project timeline header. Stage rows, calibrations and the pending-sync
	// flags live in stage_state; both tables are only ever written inside
	// one transaction so a crash cannot leave them inconsistent.
	`CREATE TABLE IF NOT EXISTS schedule_snapshot (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		version     INTEGER NOT NULL DEFAULT 1,
		start_date  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS stage_state (
		stage_key       TEXT PRIMARY KEY
		                CHECK (stage_key IN ('material','plumbing','masonry','carpentry','painting','installation')),
		order_index     INTEGER NOT NULL,
		status          TEXT NOT NULL
		                CHECK (status IN ('pending','in_progress','completed','rectify','rectify_done')),
		calibrated_end  TEXT,
		pending_sync    INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS acceptance_records (
		id              TEXT PRIMARY KEY,
		stage_key       TEXT NOT NULL REFERENCES stage_state(stage_key) ON DELETE CASCADE,
		severity        TEXT NOT NULL
		                CHECK (severity IN ('none','low','mid','high')),
		result          TEXT NOT NULL
		                CHECK (result IN ('pending','passed','pending_recheck','rectify_needed')),
		recheck_count   INTEGER NOT NULL DEFAULT 0 CHECK (recheck_count BETWEEN 0 AND 3),
		appeal          TEXT NOT NULL DEFAULT 'none'
		                CHECK (appeal IN ('none','pending','approved','rejected')),
		appeal_reason   TEXT NOT NULL DEFAULT '',
		appeal_evidence TEXT NOT NULL DEFAULT '[]',
		manual_override INTEGER NOT NULL DEFAULT 0,
		appeal_revised  INTEGER NOT NULL DEFAULT 0,
		active          INTEGER NOT NULL DEFAULT 1,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_acceptance_active
		ON acceptance_records(stage_key) WHERE active = 1`,

	`CREATE TABLE IF NOT EXISTS stage_log (
		id          TEXT PRIMARY KEY,
		stage_key   TEXT NOT NULL,
		from_status TEXT NOT NULL,
		to_status   TEXT NOT NULL,
		origin      TEXT NOT NULL CHECK (origin IN ('local','backend')),
		ts          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_stage_log_stage ON stage_log(stage_key, ts)`,
}

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
