package scheduler

import (
	"fmt"
	"time"

	"github.com/lianhaeming/renoguard/internal/domain"
)

// StageDates holds the computed planned window for one stage.
type StageDates struct {
	Key          domain.StageKey
	OrderIndex   int
	PlannedStart time.Time
	PlannedEnd   time.Time
	Calibrated   bool
}

// Compute derives the planned window of every stage from the project start
// date. A calibration overrides that stage's planned end and shifts every
// later stage; it never affects an earlier stage. The function is pure:
// identical input always yields identical output, which is what lets the
// reconciler diff locally derived dates against backend-reported ones.
func Compute(startDate time.Time, calibrations map[domain.StageKey]time.Time) ([]StageDates, error) {
	if startDate.IsZero() {
		return nil, fmt.Errorf("start date not set")
	}

	cursor := dateOnly(startDate)
	out := make([]StageDates, 0, domain.StageCount)
	for _, def := range domain.Stages() {
		plannedStart := cursor
		plannedEnd := plannedStart.AddDate(0, 0, def.DurationDays-1)
		calibrated := false
		if end, ok := calibrations[def.Key]; ok {
			plannedEnd = dateOnly(end)
			calibrated = true
		}
		out = append(out, StageDates{
			Key:          def.Key,
			OrderIndex:   def.OrderIndex,
			PlannedStart: plannedStart,
			PlannedEnd:   plannedEnd,
			Calibrated:   calibrated,
		})
		cursor = plannedEnd.AddDate(0, 0, 1)
	}
	return out, nil
}

// ValidateCalibration checks that a calibrated end date lands strictly after
// the stage's current planned start. Callers must reject bad input before it
// reaches Compute.
func ValidateCalibration(dates []StageDates, key domain.StageKey, end time.Time) error {
	for _, d := range dates {
		if d.Key != key {
			continue
		}
		if !dateOnly(end).After(d.PlannedStart) {
			return fmt.Errorf("calibrated end %s must be after stage %s planned start %s",
				end.Format("2006-01-02"), key, d.PlannedStart.Format("2006-01-02"))
		}
		return nil
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownStage, key)
}

// dateOnly truncates a timestamp to midnight UTC so date arithmetic is
// immune to time-of-day and zone noise.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
