package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lianhaeming/renoguard/internal/domain"
)

// SQLiteStageLogRepo implements StageLogRepo using a SQLite database.
type SQLiteStageLogRepo struct {
	db *sql.DB
}

// NewSQLiteStageLogRepo creates a new SQLiteStageLogRepo.
func NewSQLiteStageLogRepo(db *sql.DB) *SQLiteStageLogRepo {
	return &SQLiteStageLogRepo{db: db}
}

func (r *SQLiteStageLogRepo) Append(ctx context.Context, entry domain.StageLogEntry) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO stage_log (id, stage_key, from_status, to_status, origin, ts)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		string(entry.StageKey),
		string(entry.From),
		string(entry.To),
		string(entry.Origin),
		entry.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("appending stage log entry: %w", err)
	}
	return nil
}

func (r *SQLiteStageLogRepo) ListByStage(ctx context.Context, key domain.StageKey) ([]domain.StageLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, stage_key, from_status, to_status, origin, ts
		FROM stage_log WHERE stage_key = ? ORDER BY ts, rowid`, string(key))
	if err != nil {
		return nil, fmt.Errorf("listing stage log: %w", err)
	}
	defer rows.Close()

	var entries []domain.StageLogEntry
	for rows.Next() {
		var e domain.StageLogEntry
		var keyStr, fromStr, toStr, originStr, tsStr string
		if err := rows.Scan(&e.ID, &keyStr, &fromStr, &toStr, &originStr, &tsStr); err != nil {
			return nil, fmt.Errorf("scanning stage log entry: %w", err)
		}
		e.StageKey = domain.StageKey(keyStr)
		e.From = domain.StageStatus(fromStr)
		e.To = domain.StageStatus(toStr)
		e.Origin = domain.MutationOrigin(originStr)
		e.Timestamp, err = time.Parse(time.RFC3339, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parsing stage log timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stage log: %w", err)
	}
	return entries, nil
}
