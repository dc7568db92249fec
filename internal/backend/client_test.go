package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) Config {
	return Config{BaseURL: url, TimeoutMs: 2000, MaxRetries: 1}
}

func TestFetchSchedule_ParsesReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/constructions/schedule", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"start_date": "2025-03-01",
			"stages": map[string]any{
				"S00": map[string]string{"status": "checked", "end_date": "2025-03-03"},
				"S01": map[string]string{"status": "checking"},
			},
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(testConfig(srv.URL), nil)
	report, err := client.FetchSchedule(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), report.StartDate)
	require.Contains(t, report.Stages, "S00")
	assert.Equal(t, "checked", report.Stages["S00"].Status)
	require.NotNil(t, report.Stages["S00"].EndDate)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), *report.Stages["S00"].EndDate)
	assert.Nil(t, report.Stages["S01"].EndDate)
}

func TestFetchSchedule_BadStartDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"start_date": "not-a-date", "stages": map[string]any{}})
	}))
	defer srv.Close()

	client := NewHTTPClient(testConfig(srv.URL), nil)
	_, err := client.FetchSchedule(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestPushStageStatus_SendsBody(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/constructions/stage-status", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewHTTPClient(testConfig(srv.URL), nil)
	err := client.PushStageStatus(context.Background(), "S02", "rectify")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"stage": "S02", "status": "rectify"}, got)
}

func TestPushCalibration_SendsBody(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/constructions/calibrate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewHTTPClient(testConfig(srv.URL), nil)
	err := client.PushCalibration(context.Background(), "S03", time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"stage": "S03", "end_date": "2025-04-02"}, got)
}

func TestCall_ServerErrorRetriesThenUnavailable(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(testConfig(srv.URL), nil)
	err := client.PushStartDate(context.Background(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, calls, "one retry after the first failure")
}

func TestCall_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewHTTPClient(testConfig(srv.URL), nil)
	_, err := client.FetchSchedule(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCall_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewHTTPClient(testConfig(srv.URL), nil)
	err := client.PushStageStatus(context.Background(), "S01", "completed")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)
	assert.Equal(t, 1, calls, "4xx responses are not retried")
}

func TestObserver_ReceivesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var events []CallEvent
	client := NewHTTPClient(testConfig(srv.URL), observerFunc(func(e CallEvent) { events = append(events, e) }))
	require.NoError(t, client.PushStageStatus(context.Background(), "S00", "completed"))

	require.Len(t, events, 1)
	assert.Equal(t, "push_stage_status", events[0].Op)
	assert.True(t, events[0].Success)
}

type observerFunc func(CallEvent)

func (f observerFunc) OnCallComplete(e CallEvent) { f(e) }
