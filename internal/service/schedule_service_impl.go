package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lianhaeming/renoguard/internal/backend"
	"github.com/lianhaeming/renoguard/internal/domain"
	"github.com/lianhaeming/renoguard/internal/repository"
	"github.com/lianhaeming/renoguard/internal/scheduler"
)

// scheduleService implements ScheduleService. It is the only writer of the
// schedule state and the pending-sync flags; callers receive clones. The
// mutex serializes the CLI thread against background reconcile and poll
// goroutines.
type scheduleService struct {
	mu      sync.Mutex
	state   *domain.ScheduleState
	client  backend.Client
	states  repository.StateRepo
	accepts repository.AcceptanceRepo
	logs    repository.StageLogRepo
	now     func() time.Time
}

// NewScheduleService creates the sync reconciler.
func NewScheduleService(
	client backend.Client,
	states repository.StateRepo,
	accepts repository.AcceptanceRepo,
	logs repository.StageLogRepo,
) ScheduleService {
	return &scheduleService{
		client:  client,
		states:  states,
		accepts: accepts,
		logs:    logs,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *scheduleService) LoadSchedule(ctx context.Context) (*LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.client.FetchSchedule(ctx)
	if err != nil {
		if !recoverable(err) {
			return nil, err
		}
		// Backend unreachable: serve the last-known local snapshot.
		if err := s.ensureLoaded(ctx); err != nil {
			return nil, err
		}
		if s.state == nil {
			return nil, fmt.Errorf("%w: backend unreachable and no local cache", ErrNoSchedule)
		}
		state := s.state.Clone()
		return &LoadResult{State: state, FromCache: true}, nil
	}

	local, err := s.states.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading local snapshot: %w", err)
	}

	merged := domain.ScheduleState{StartDate: report.StartDate}
	var backendChanges []domain.StageLogEntry
	for _, def := range domain.Stages() {
		st := domain.Stage{
			Key:          def.Key,
			Name:         def.Name,
			OrderIndex:   def.OrderIndex,
			DurationDays: def.DurationDays,
			Status:       domain.InitialStatus(def.Key),
		}
		rep, reported := report.Stages[def.BackendCode]
		if reported {
			st.Status = domain.MapBackendStatus(def.Key, rep.Status)
		}
		if local != nil {
			if lst := local.StageByKey(def.Key); lst != nil {
				// Local calibration overrides merge on top: calibration is a
				// local correction the backend may not know about yet.
				st.CalibratedEnd = lst.CalibratedEnd
				// A stage with unconfirmed local mutations stays queued until
				// the backend echoes every one of them back: the status AND,
				// when a calibration override is queued, its end date.
				if lst.PendingSync {
					statusConfirmed := reported && st.Status == lst.Status
					calConfirmed := lst.CalibratedEnd == nil ||
						(reported && rep.EndDate != nil && rep.EndDate.Equal(*lst.CalibratedEnd))
					if !statusConfirmed || !calConfirmed {
						st.Status = lst.Status
						st.PendingSync = true
					}
				}
				// A backend-driven status change goes through the stage log
				// like any local mutation would.
				if !st.PendingSync && st.Status != lst.Status {
					backendChanges = append(backendChanges, domain.StageLogEntry{
						ID:        uuid.New().String(),
						StageKey:  def.Key,
						From:      lst.Status,
						To:        st.Status,
						Origin:    domain.OriginBackend,
						Timestamp: s.now(),
					})
				}
			}
		}
		merged.Stages = append(merged.Stages, st)
	}
	if err := s.recompute(&merged); err != nil {
		return nil, err
	}

	drift := computeDrift(merged, report)

	if err := s.states.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("caching schedule: %w", err)
	}
	for _, entry := range backendChanges {
		if err := s.logs.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("appending stage log: %w", err)
		}
	}
	s.state = &merged

	return &LoadResult{State: merged.Clone(), Drift: drift}, nil
}

func (s *scheduleService) Snapshot(ctx context.Context) (*domain.ScheduleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if s.state == nil {
		return nil, ErrNoSchedule
	}
	state := s.state.Clone()
	return &state, nil
}

func (s *scheduleService) SetStartDate(ctx context.Context, start time.Time) (*domain.ScheduleState, error) {
	if start.IsZero() {
		return nil, fmt.Errorf("start date must be set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A new start date is a new timeline: every stage returns to its
	// initial status, acceptance records are destroyed and nothing is
	// left pending.
	state := domain.ScheduleState{StartDate: start}
	for _, def := range domain.Stages() {
		state.Stages = append(state.Stages, domain.Stage{
			Key:          def.Key,
			Name:         def.Name,
			OrderIndex:   def.OrderIndex,
			DurationDays: def.DurationDays,
			Status:       domain.InitialStatus(def.Key),
		})
	}
	if err := s.recompute(&state); err != nil {
		return nil, err
	}

	if err := s.accepts.DeleteAll(ctx); err != nil {
		return nil, err
	}
	if err := s.states.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("persisting new timeline: %w", err)
	}
	s.state = &state

	if err := s.client.PushStartDate(ctx, start); err != nil && !recoverable(err) {
		return nil, err
	}

	out := state.Clone()
	return &out, nil
}

func (s *scheduleService) Calibrate(ctx context.Context, key domain.StageKey, end time.Time) (*domain.ScheduleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if s.state == nil {
		return nil, ErrNoSchedule
	}
	if s.state.StageByKey(key) == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStage, key)
	}

	dates, err := scheduler.Compute(s.state.StartDate, s.state.Calibrations())
	if err != nil {
		return nil, err
	}
	if err := scheduler.ValidateCalibration(dates, key, end); err != nil {
		return nil, err
	}

	// Stage the calibration on a clone; the live state and the cache only
	// advance together once the push outcome is known, so a hard failure
	// leaves both exactly as they were.
	next := s.state.Clone()
	st := next.StageByKey(key)
	calEnd := end
	st.CalibratedEnd = &calEnd
	if err := s.recompute(&next); err != nil {
		return nil, err
	}

	code, err := domain.BackendCode(key)
	if err != nil {
		return nil, err
	}
	if pushErr := s.client.PushCalibration(ctx, code, end); pushErr != nil {
		if !recoverable(pushErr) {
			return nil, pushErr
		}
		st.PendingSync = true
	}

	if err := s.states.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("persisting calibration: %w", err)
	}
	s.state = &next

	out := next.Clone()
	return &out, nil
}

func (s *scheduleService) ApplyStageStatus(ctx context.Context, key domain.StageKey, to domain.StageStatus, origin domain.MutationOrigin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if s.state == nil {
		return ErrNoSchedule
	}
	st := s.state.StageByKey(key)
	if st == nil {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStage, key)
	}

	from := st.Status
	next, err := domain.Transition(from, to)
	if err != nil {
		return err
	}

	// Optimistic apply: local state changes immediately, the backend push
	// may lag behind.
	st.Status = next
	st.PendingSync = true
	if err := s.states.Save(ctx, *s.state); err != nil {
		return fmt.Errorf("persisting status change: %w", err)
	}
	if err := s.logs.Append(ctx, domain.StageLogEntry{
		ID:        uuid.New().String(),
		StageKey:  key,
		From:      from,
		To:        next,
		Origin:    origin,
		Timestamp: s.now(),
	}); err != nil {
		return fmt.Errorf("appending stage log: %w", err)
	}

	if pushErr := s.pushStage(ctx, st); pushErr != nil {
		if !recoverable(pushErr) {
			return pushErr
		}
		// Queued: the stage stays pending-sync until a reconcile pass or a
		// schedule load confirms it.
		return nil
	}

	st.PendingSync = false
	if err := s.states.Save(ctx, *s.state); err != nil {
		return fmt.Errorf("persisting sync confirmation: %w", err)
	}
	return nil
}

func (s *scheduleService) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	result := &ReconcileResult{}
	if s.state == nil {
		return result, nil
	}

	dirty := false
	for i := range s.state.Stages {
		st := &s.state.Stages[i]
		if !st.PendingSync {
			continue
		}
		if err := s.pushStage(ctx, st); err != nil {
			if !recoverable(err) {
				return nil, err
			}
			result.Remaining = append(result.Remaining, st.Key)
			continue
		}
		st.PendingSync = false
		dirty = true
		result.Synced = append(result.Synced, st.Key)
	}

	if dirty {
		if err := s.states.Save(ctx, *s.state); err != nil {
			return nil, fmt.Errorf("persisting reconcile result: %w", err)
		}
	}
	return result, nil
}

func (s *scheduleService) StageLog(ctx context.Context, key domain.StageKey) ([]domain.StageLogEntry, error) {
	if _, err := domain.StageByKey(key); err != nil {
		return nil, err
	}
	return s.logs.ListByStage(ctx, key)
}

func (s *scheduleService) ResetLocal(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.states.Reset(ctx); err != nil {
		return fmt.Errorf("resetting local cache: %w", err)
	}
	s.state = nil
	return nil
}

// pushStage sends a stage's current status, and its calibration when one is
// recorded, to the backend. Pushing an already applied value is harmless:
// the backend treats the write as idempotent.
func (s *scheduleService) pushStage(ctx context.Context, st *domain.Stage) error {
	code, err := domain.BackendCode(st.Key)
	if err != nil {
		return err
	}
	if err := s.client.PushStageStatus(ctx, code, domain.BackendStatus(st.Status)); err != nil {
		return err
	}
	if st.CalibratedEnd != nil {
		if err := s.client.PushCalibration(ctx, code, *st.CalibratedEnd); err != nil {
			return err
		}
	}
	return nil
}

// ensureLoaded lazily hydrates the in-memory state from the local cache.
func (s *scheduleService) ensureLoaded(ctx context.Context) error {
	if s.state != nil {
		return nil
	}
	local, err := s.states.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading local snapshot: %w", err)
	}
	if local == nil {
		return nil
	}
	if err := s.recompute(local); err != nil {
		return err
	}
	s.state = local
	return nil
}

// recompute re-derives every stage's planned dates from the start date and
// the calibration overrides. Dates are never persisted; the calculator is
// their single source of truth.
func (s *scheduleService) recompute(state *domain.ScheduleState) error {
	dates, err := scheduler.Compute(state.StartDate, state.Calibrations())
	if err != nil {
		return err
	}
	for i, d := range dates {
		state.Stages[i].PlannedStart = d.PlannedStart
		state.Stages[i].PlannedEnd = d.PlannedEnd
	}
	return nil
}

// computeDrift compares locally derived planned ends against the end dates
// the backend reports.
func computeDrift(state domain.ScheduleState, report *backend.ScheduleReport) []StageDrift {
	var drift []StageDrift
	for _, st := range state.Stages {
		def, err := domain.StageByKey(st.Key)
		if err != nil {
			continue
		}
		rep, ok := report.Stages[def.BackendCode]
		if !ok || rep.EndDate == nil {
			continue
		}
		if !rep.EndDate.Equal(st.PlannedEnd) {
			drift = append(drift, StageDrift{Key: st.Key, LocalEnd: st.PlannedEnd, BackendEnd: *rep.EndDate})
		}
	}
	return drift
}

// recoverable reports whether a backend failure may be retried later. Such
// failures never propagate as hard errors; the mutation queues instead.
func recoverable(err error) bool {
	return errors.Is(err, backend.ErrUnavailable) || errors.Is(err, backend.ErrTimeout)
}
