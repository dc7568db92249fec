package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lianhaeming/renoguard/internal/db"
	"github.com/lianhaeming/renoguard/internal/domain"
)

// SQLiteStateRepo implements StateRepo over SQLite. Writes go through a
// UnitOfWork so the snapshot header and the six stage rows change together.
type SQLiteStateRepo struct {
	db  *sql.DB
	uow db.UnitOfWork
}

// NewSQLiteStateRepo creates a new SQLiteStateRepo.
func NewSQLiteStateRepo(database *sql.DB, uow db.UnitOfWork) *SQLiteStateRepo {
	return &SQLiteStateRepo{db: database, uow: uow}
}

func (r *SQLiteStateRepo) Load(ctx context.Context) (*domain.ScheduleState, error) {
	var startDateStr string
	err := r.db.QueryRowContext(ctx, `SELECT start_date FROM schedule_snapshot WHERE id = 1`).Scan(&startDateStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading schedule snapshot: %w", err)
	}
	startDate, err := time.Parse(dateLayout, startDateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT stage_key, status, calibrated_end, pending_sync
		FROM stage_state ORDER BY order_index`)
	if err != nil {
		return nil, fmt.Errorf("loading stage state: %w", err)
	}
	defer rows.Close()

	byKey := make(map[domain.StageKey]domain.Stage)
	for rows.Next() {
		var keyStr, statusStr string
		var calEnd sql.NullString
		var pending int
		if err := rows.Scan(&keyStr, &statusStr, &calEnd, &pending); err != nil {
			return nil, fmt.Errorf("scanning stage state: %w", err)
		}
		byKey[domain.StageKey(keyStr)] = domain.Stage{
			Key:           domain.StageKey(keyStr),
			Status:        domain.StageStatus(statusStr),
			CalibratedEnd: parseNullableTime(calEnd, dateLayout),
			PendingSync:   intToBool(pending),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stage state: %w", err)
	}

	state := domain.ScheduleState{StartDate: startDate}
	for _, def := range domain.Stages() {
		st, ok := byKey[def.Key]
		if !ok {
			return nil, fmt.Errorf("stage %s missing from persisted snapshot", def.Key)
		}
		st.Name = def.Name
		st.OrderIndex = def.OrderIndex
		st.DurationDays = def.DurationDays
		state.Stages = append(state.Stages, st)
	}
	return &state, nil
}

func (r *SQLiteStateRepo) Save(ctx context.Context, state domain.ScheduleState) error {
	if len(state.Stages) != domain.StageCount {
		return fmt.Errorf("snapshot must contain all %d stages, got %d", domain.StageCount, len(state.Stages))
	}
	return r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		now := nowUTC()
		_, err := tx.ExecContext(ctx, `INSERT INTO schedule_snapshot (id, version, start_date, updated_at)
			VALUES (1, 1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET start_date = excluded.start_date, updated_at = excluded.updated_at`,
			state.StartDate.Format(dateLayout), now)
		if err != nil {
			return fmt.Errorf("upserting schedule snapshot: %w", err)
		}
		for _, st := range state.Stages {
			_, err := tx.ExecContext(ctx, `INSERT INTO stage_state (stage_key, order_index, status, calibrated_end, pending_sync)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(stage_key) DO UPDATE SET
					status = excluded.status,
					calibrated_end = excluded.calibrated_end,
					pending_sync = excluded.pending_sync`,
				string(st.Key), st.OrderIndex, string(st.Status),
				nullableTimeToString(st.CalibratedEnd, dateLayout), boolToInt(st.PendingSync))
			if err != nil {
				return fmt.Errorf("upserting stage %s: %w", st.Key, err)
			}
		}
		return nil
	})
}

func (r *SQLiteStateRepo) Reset(ctx context.Context) error {
	return r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		for _, stmt := range []string{
			`DELETE FROM acceptance_records`,
			`DELETE FROM stage_state`,
			`DELETE FROM schedule_snapshot`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("resetting local state: %w", err)
			}
		}
		return nil
	})
}
