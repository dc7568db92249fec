package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lianhaeming/renoguard/internal/domain"
)

// SQLiteAcceptanceRepo implements AcceptanceRepo using a SQLite database.
type SQLiteAcceptanceRepo struct {
	db *sql.DB
}

// NewSQLiteAcceptanceRepo creates a new SQLiteAcceptanceRepo.
func NewSQLiteAcceptanceRepo(db *sql.DB) *SQLiteAcceptanceRepo {
	return &SQLiteAcceptanceRepo{db: db}
}

func (r *SQLiteAcceptanceRepo) GetActive(ctx context.Context, key domain.StageKey) (*domain.AcceptanceRecord, error) {
	query := `SELECT id, stage_key, severity, result, recheck_count, appeal, appeal_reason, appeal_evidence, manual_override, appeal_revised, created_at, updated_at
		FROM acceptance_records WHERE stage_key = ? AND active = 1`
	row := r.db.QueryRowContext(ctx, query, string(key))

	var rec domain.AcceptanceRecord
	var keyStr, sevStr, resStr, appealStr, evidenceStr, createdStr, updatedStr string
	var override, revised int
	err := row.Scan(&rec.ID, &keyStr, &sevStr, &resStr, &rec.RecheckCount, &appealStr, &rec.AppealReason, &evidenceStr, &override, &revised, &createdStr, &updatedStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning acceptance record: %w", err)
	}

	rec.StageKey = domain.StageKey(keyStr)
	rec.Severity = domain.Severity(sevStr)
	rec.Result = domain.ResultStatus(resStr)
	rec.Appeal = domain.AppealStatus(appealStr)
	if err := json.Unmarshal([]byte(evidenceStr), &rec.AppealEvidence); err != nil {
		return nil, fmt.Errorf("parsing appeal_evidence: %w", err)
	}
	rec.ManualOverride = intToBool(override)
	rec.AppealRevised = intToBool(revised)

	var parseErr error
	rec.CreatedAt, parseErr = time.Parse(time.RFC3339, createdStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	rec.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &rec, nil
}

func (r *SQLiteAcceptanceRepo) Put(ctx context.Context, rec *domain.AcceptanceRecord) error {
	evidence, err := json.Marshal(rec.AppealEvidence)
	if err != nil {
		return fmt.Errorf("encoding appeal evidence: %w", err)
	}
	if rec.AppealEvidence == nil {
		evidence = []byte("[]")
	}
	query := `INSERT INTO acceptance_records (id, stage_key, severity, result, recheck_count, appeal, appeal_reason, appeal_evidence, manual_override, appeal_revised, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			severity = excluded.severity,
			result = excluded.result,
			recheck_count = excluded.recheck_count,
			appeal = excluded.appeal,
			appeal_reason = excluded.appeal_reason,
			appeal_evidence = excluded.appeal_evidence,
			manual_override = excluded.manual_override,
			appeal_revised = excluded.appeal_revised,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		string(rec.StageKey),
		string(rec.Severity),
		string(rec.Result),
		rec.RecheckCount,
		string(rec.Appeal),
		rec.AppealReason,
		string(evidence),
		boolToInt(rec.ManualOverride),
		boolToInt(rec.AppealRevised),
		rec.CreatedAt.UTC().Format(time.RFC3339),
		rec.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting acceptance record: %w", err)
	}
	return nil
}

func (r *SQLiteAcceptanceRepo) Supersede(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE acceptance_records SET active = 0, updated_at = ? WHERE id = ?`, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("superseding acceptance record: %w", err)
	}
	return nil
}

func (r *SQLiteAcceptanceRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM acceptance_records`)
	if err != nil {
		return fmt.Errorf("deleting acceptance records: %w", err)
	}
	return nil
}
