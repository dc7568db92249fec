package scheduler

import (
	"testing"
	"time"

	"github.com/lianhaeming/renoguard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute_ContiguousStages(t *testing.T) {
	start := date(2025, 3, 1)
	dates, err := Compute(start, nil)
	require.NoError(t, err)
	require.Len(t, dates, domain.StageCount)

	for i := 1; i < len(dates); i++ {
		wantStart := dates[i-1].PlannedEnd.AddDate(0, 0, 1)
		assert.Equal(t, wantStart, dates[i].PlannedStart, "stage %s starts the day after its predecessor ends", dates[i].Key)
	}

	total := 0
	for _, def := range domain.Stages() {
		total += def.DurationDays
	}
	assert.Equal(t, start.AddDate(0, 0, total-1), dates[len(dates)-1].PlannedEnd)
}

func TestCompute_ReferenceScenario(t *testing.T) {
	// Durations [3,7,10,7,7,5], total 39 days.
	dates, err := Compute(date(2025, 3, 1), nil)
	require.NoError(t, err)

	assert.Equal(t, date(2025, 3, 1), dates[0].PlannedStart)
	assert.Equal(t, date(2025, 3, 3), dates[0].PlannedEnd)
	assert.Equal(t, date(2025, 3, 4), dates[1].PlannedStart)
	assert.Equal(t, date(2025, 4, 8), dates[5].PlannedEnd)
}

func TestCompute_CalibrationShiftsDownstreamOnly(t *testing.T) {
	start := date(2025, 3, 1)
	base, err := Compute(start, nil)
	require.NoError(t, err)

	// Masonry (index 2) overruns by 4 days.
	calEnd := base[2].PlannedEnd.AddDate(0, 0, 4)
	shifted, err := Compute(start, map[domain.StageKey]time.Time{domain.StageMasonry: calEnd})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		assert.Equal(t, base[i].PlannedStart, shifted[i].PlannedStart, "stage %d start unchanged", i)
		assert.Equal(t, base[i].PlannedEnd, shifted[i].PlannedEnd, "stage %d end unchanged", i)
	}
	assert.Equal(t, base[2].PlannedStart, shifted[2].PlannedStart)
	assert.Equal(t, calEnd, shifted[2].PlannedEnd)
	assert.True(t, shifted[2].Calibrated)

	for i := 3; i < len(shifted); i++ {
		assert.Equal(t, base[i].PlannedStart.AddDate(0, 0, 4), shifted[i].PlannedStart, "stage %d shifted by 4 days", i)
		assert.Equal(t, base[i].PlannedEnd.AddDate(0, 0, 4), shifted[i].PlannedEnd, "stage %d shifted by 4 days", i)
	}
}

func TestCompute_CalibrationIdempotent(t *testing.T) {
	start := date(2025, 3, 1)
	cal := map[domain.StageKey]time.Time{domain.StagePlumbing: date(2025, 3, 14)}

	first, err := Compute(start, cal)
	require.NoError(t, err)
	second, err := Compute(start, cal)
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical input must yield identical output")
}

func TestCompute_ZeroStartDate(t *testing.T) {
	_, err := Compute(time.Time{}, nil)
	require.Error(t, err)
}

func TestCompute_TruncatesTimeOfDay(t *testing.T) {
	noon := time.Date(2025, 3, 1, 12, 30, 0, 0, time.FixedZone("CST", 8*3600))
	dates, err := Compute(noon, nil)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 1), dates[0].PlannedStart)
}

func TestValidateCalibration(t *testing.T) {
	dates, err := Compute(date(2025, 3, 1), nil)
	require.NoError(t, err)

	// Plumbing starts 2025-03-04.
	assert.NoError(t, ValidateCalibration(dates, domain.StagePlumbing, date(2025, 3, 5)))
	assert.Error(t, ValidateCalibration(dates, domain.StagePlumbing, date(2025, 3, 4)), "end equal to start is rejected")
	assert.Error(t, ValidateCalibration(dates, domain.StagePlumbing, date(2025, 3, 1)))

	err = ValidateCalibration(dates, domain.StageKey("demolition"), date(2025, 3, 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownStage)
}
