package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/lianhaeming/renoguard/internal/domain"
	"github.com/lianhaeming/renoguard/internal/scheduler"
)

// TestStartDate is the fixed project start used across tests.
var TestStartDate = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// StageOption mutates one stage of a test schedule state.
type StageOption func(*domain.ScheduleState)

// WithStageStatus sets the status of a single stage.
func WithStageStatus(key domain.StageKey, status domain.StageStatus) StageOption {
	return func(s *domain.ScheduleState) {
		if st := s.StageByKey(key); st != nil {
			st.Status = status
		}
	}
}

// WithCalibratedEnd sets a manual end-date calibration on a single stage.
func WithCalibratedEnd(key domain.StageKey, end time.Time) StageOption {
	return func(s *domain.ScheduleState) {
		if st := s.StageByKey(key); st != nil {
			st.CalibratedEnd = &end
		}
	}
}

// WithPendingSync flags a stage as awaiting backend confirmation.
func WithPendingSync(key domain.StageKey) StageOption {
	return func(s *domain.ScheduleState) {
		if st := s.StageByKey(key); st != nil {
			st.PendingSync = true
		}
	}
}

// NewTestState builds a full six-stage schedule state starting at
// TestStartDate, with planned dates derived and initial statuses applied.
func NewTestState(opts ...StageOption) domain.ScheduleState {
	state := domain.ScheduleState{StartDate: TestStartDate}
	for _, def := range domain.Stages() {
		state.Stages = append(state.Stages, domain.Stage{
			Key:          def.Key,
			Name:         def.Name,
			OrderIndex:   def.OrderIndex,
			DurationDays: def.DurationDays,
			Status:       domain.InitialStatus(def.Key),
		})
	}
	for _, opt := range opts {
		opt(&state)
	}
	dates, err := scheduler.Compute(state.StartDate, state.Calibrations())
	if err != nil {
		panic(err)
	}
	for i, d := range dates {
		state.Stages[i].PlannedStart = d.PlannedStart
		state.Stages[i].PlannedEnd = d.PlannedEnd
	}
	return state
}

// NewRectifyRecord builds an acceptance record sitting in rectify_needed.
func NewRectifyRecord(key domain.StageKey, severity domain.Severity, rechecks int) *domain.AcceptanceRecord {
	now := time.Now().UTC()
	return &domain.AcceptanceRecord{
		ID:           uuid.New().String(),
		StageKey:     key,
		Severity:     severity,
		Result:       domain.ResultRectifyNeeded,
		RecheckCount: rechecks,
		Appeal:       domain.AppealNone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
