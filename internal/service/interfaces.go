package service

import (
	"context"
	"errors"
	"time"

	"github.com/lianhaeming/renoguard/internal/domain"
)

var (
	// ErrNoSchedule indicates no start date has been set and the backend
	// could not supply a schedule either.
	ErrNoSchedule = errors.New("no schedule available")

	// ErrStageLocked indicates an acceptance action on a stage whose
	// predecessor has not reached a terminal status.
	ErrStageLocked = errors.New("stage is locked by its predecessor")

	// ErrNoAcceptance indicates no active acceptance record exists for the
	// stage.
	ErrNoAcceptance = errors.New("no active acceptance record")
)

// StageDrift reports a disagreement between the locally derived planned end
// of a stage and the end date the backend reports for it.
type StageDrift struct {
	Key        domain.StageKey
	LocalEnd   time.Time
	BackendEnd time.Time
}

// LoadResult is the outcome of a schedule load.
type LoadResult struct {
	State     domain.ScheduleState
	FromCache bool
	Drift     []StageDrift
}

// ReconcileResult reports which pending stages were confirmed by the backend
// and which remain queued.
type ReconcileResult struct {
	Synced    []domain.StageKey
	Remaining []domain.StageKey
}

// ScheduleService is the sync reconciler: the single owner of the mutable
// schedule state and the pending-sync set. Every other component operates on
// the snapshots it hands out.
type ScheduleService interface {
	// LoadSchedule prefers the backend and falls back to the local cache.
	// Backend-reported statuses win except for stages with a pending local
	// mutation; local calibration overrides are merged on top.
	LoadSchedule(ctx context.Context) (*LoadResult, error)

	// Snapshot returns the current state from the local cache only.
	Snapshot(ctx context.Context) (*domain.ScheduleState, error)

	// SetStartDate creates (or re-creates) the project timeline. All six
	// stages reset to their initial status, acceptance records are
	// destroyed and the pending-sync set is cleared.
	SetStartDate(ctx context.Context, start time.Time) (*domain.ScheduleState, error)

	// Calibrate records a manual end-date correction for a stage and shifts
	// all later stages. The end date must be strictly after the stage's
	// planned start.
	Calibrate(ctx context.Context, key domain.StageKey, end time.Time) (*domain.ScheduleState, error)

	// ApplyStageStatus applies a status change optimistically: local state
	// and stage log update immediately, the backend push is attempted and
	// the stage queues for reconciliation when it fails.
	ApplyStageStatus(ctx context.Context, key domain.StageKey, to domain.StageStatus, origin domain.MutationOrigin) error

	// Reconcile re-pushes every queued stage. Idempotent: re-sending an
	// already applied status neither errors nor double-mutates.
	Reconcile(ctx context.Context) (*ReconcileResult, error)

	// StageLog lists the recorded status changes for a stage.
	StageLog(ctx context.Context, key domain.StageKey) ([]domain.StageLogEntry, error)

	// ResetLocal wipes the local cache: schedule snapshot, stage state and
	// acceptance records. The backend is not touched.
	ResetLocal(ctx context.Context) error
}

// AcceptanceService drives the acceptance, recheck, appeal and manual
// override workflows for individual stages.
type AcceptanceService interface {
	// SubmitAcceptance submits a stage for its first acceptance analysis
	// and blocks until the verdict arrives or the poll budget runs out.
	SubmitAcceptance(ctx context.Context, key domain.StageKey, evidenceURLs []string) (*domain.AcceptanceRecord, error)

	// SubmitRecheck re-submits after a rectification finding. Bounded at
	// three attempts per record.
	SubmitRecheck(ctx context.Context, key domain.StageKey, evidenceURLs []string) (*domain.AcceptanceRecord, error)

	// ActiveRecord returns the stage's active acceptance record, or nil.
	ActiveRecord(ctx context.Context, key domain.StageKey) (*domain.AcceptanceRecord, error)

	// CanMarkPassed reports whether the manual override path is open.
	CanMarkPassed(ctx context.Context, key domain.StageKey) (bool, error)

	// MarkPassed self-certifies a stage after exhausted rechecks. Requires
	// evidence photos and a note.
	MarkPassed(ctx context.Context, key domain.StageKey, photos []string, note string) error

	// SubmitAppeal files a dispute for human review. Requires a reason and
	// supporting evidence photos.
	SubmitAppeal(ctx context.Context, key domain.StageKey, reason string, evidenceURLs []string) error

	// ResolveAppeal applies the reviewer's decision delivered by the
	// external appeal channel.
	ResolveAppeal(ctx context.Context, key domain.StageKey, approved bool) error
}
