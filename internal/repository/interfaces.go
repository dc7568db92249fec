package repository

import (
	"context"

	"github.com/lianhaeming/renoguard/internal/domain"
)

// StateRepo persists the local schedule snapshot: start date, per-stage
// status, calibration overrides and the pending-sync flags. Save writes all
// of it in one transaction so the locking policy can never observe a
// partially updated cache after a crash.
type StateRepo interface {
	// Load returns the persisted snapshot, or (nil, nil) when no start date
	// has ever been set.
	Load(ctx context.Context) (*domain.ScheduleState, error)
	// Save replaces the snapshot wholesale.
	Save(ctx context.Context, state domain.ScheduleState) error
	// Reset deletes the snapshot, all stage rows and acceptance records.
	Reset(ctx context.Context) error
}

// AcceptanceRepo persists acceptance records. At most one record per stage
// is active; superseded records are kept for audit.
type AcceptanceRepo interface {
	GetActive(ctx context.Context, key domain.StageKey) (*domain.AcceptanceRecord, error)
	Put(ctx context.Context, rec *domain.AcceptanceRecord) error
	Supersede(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// StageLogRepo appends and lists stage status changes.
type StageLogRepo interface {
	Append(ctx context.Context, entry domain.StageLogEntry) error
	ListByStage(ctx context.Context, key domain.StageKey) ([]domain.StageLogEntry, error)
}
