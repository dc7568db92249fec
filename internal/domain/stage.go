package domain

import "time"

// Stage is one entry of the project schedule: a catalog definition plus the
// derived dates and current status. Stages are value snapshots; components
// outside the reconciler receive copies and return new values.
type Stage struct {
	Key           StageKey
	Name          string
	OrderIndex    int
	DurationDays  int
	PlannedStart  time.Time
	PlannedEnd    time.Time
	CalibratedEnd *time.Time
	Status        StageStatus
	PendingSync   bool
}

// ScheduleState is the singleton mutable state of a project timeline, owned
// exclusively by the sync reconciler. All six stages exist together from the
// moment a start date is set.
type ScheduleState struct {
	StartDate time.Time
	Stages    []Stage
}

// Clone returns a deep copy safe to hand to callers as a snapshot.
func (s ScheduleState) Clone() ScheduleState {
	out := ScheduleState{StartDate: s.StartDate, Stages: make([]Stage, len(s.Stages))}
	copy(out.Stages, s.Stages)
	for i, st := range s.Stages {
		if st.CalibratedEnd != nil {
			end := *st.CalibratedEnd
			out.Stages[i].CalibratedEnd = &end
		}
	}
	return out
}

// StageByKey returns a pointer to the stage with the given key, or nil.
func (s *ScheduleState) StageByKey(key StageKey) *Stage {
	for i := range s.Stages {
		if s.Stages[i].Key == key {
			return &s.Stages[i]
		}
	}
	return nil
}

// Calibrations collects the manual end-date overrides present in the state.
func (s ScheduleState) Calibrations() map[StageKey]time.Time {
	out := make(map[StageKey]time.Time)
	for _, st := range s.Stages {
		if st.CalibratedEnd != nil {
			out[st.Key] = *st.CalibratedEnd
		}
	}
	return out
}

// StageLogEntry records one stage status change for audit.
type StageLogEntry struct {
	ID        string
	StageKey  StageKey
	From      StageStatus
	To        StageStatus
	Origin    MutationOrigin
	Timestamp time.Time
}
