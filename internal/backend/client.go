package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

// StageReport is the backend's view of one stage.
type StageReport struct {
	Status  string
	EndDate *time.Time
}

// ScheduleReport is the backend's view of the whole project timeline,
// keyed by the backend short codes S00..S05.
type ScheduleReport struct {
	StartDate time.Time
	Stages    map[string]StageReport
}

// Client provides access to the construction backend REST surface.
type Client interface {
	// FetchSchedule retrieves the authoritative schedule.
	FetchSchedule(ctx context.Context) (*ScheduleReport, error)

	// PushStartDate sets the project start date.
	PushStartDate(ctx context.Context, start time.Time) error

	// PushStageStatus writes a stage status in the backend vocabulary.
	PushStageStatus(ctx context.Context, stageCode, status string) error

	// PushCalibration records a manual end-date calibration for a stage.
	PushCalibration(ctx context.Context, stageCode string, end time.Time) error
}

// httpClient implements Client over the backend's JSON REST API.
type httpClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewHTTPClient creates a Client that talks to the construction backend.
func NewHTTPClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &httpClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// scheduleResponse is the JSON body returned by GET /constructions/schedule.
type scheduleResponse struct {
	StartDate string                        `json:"start_date"`
	Stages    map[string]stageStatusPayload `json:"stages"`
}

type stageStatusPayload struct {
	Status  string `json:"status"`
	EndDate string `json:"end_date,omitempty"`
}

func (c *httpClient) FetchSchedule(ctx context.Context) (*ScheduleReport, error) {
	var resp scheduleResponse
	if err := c.call(ctx, "fetch_schedule", http.MethodGet, "/constructions/schedule", nil, &resp); err != nil {
		return nil, err
	}

	start, err := time.Parse(dateLayout, resp.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing start_date %q", ErrBadResponse, resp.StartDate)
	}
	report := &ScheduleReport{StartDate: start, Stages: make(map[string]StageReport, len(resp.Stages))}
	for code, payload := range resp.Stages {
		sr := StageReport{Status: payload.Status}
		if payload.EndDate != "" {
			end, err := time.Parse(dateLayout, payload.EndDate)
			if err != nil {
				return nil, fmt.Errorf("%w: parsing end_date %q for %s", ErrBadResponse, payload.EndDate, code)
			}
			sr.EndDate = &end
		}
		report.Stages[code] = sr
	}
	return report, nil
}

func (c *httpClient) PushStartDate(ctx context.Context, start time.Time) error {
	body := map[string]string{"start_date": start.Format(dateLayout)}
	return c.call(ctx, "push_start_date", http.MethodPost, "/constructions/start-date", body, nil)
}

func (c *httpClient) PushStageStatus(ctx context.Context, stageCode, status string) error {
	body := map[string]string{"stage": stageCode, "status": status}
	return c.call(ctx, "push_stage_status", http.MethodPut, "/constructions/stage-status", body, nil)
}

func (c *httpClient) PushCalibration(ctx context.Context, stageCode string, end time.Time) error {
	body := map[string]string{"stage": stageCode, "end_date": end.Format(dateLayout)}
	return c.call(ctx, "push_calibrate", http.MethodPost, "/constructions/calibrate", body, nil)
}

// call performs one backend request with the configured budget and bounded
// retries, decoding the response into out when out is non-nil.
func (c *httpClient) call(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	var lastErr error
	attempts := 1 + c.cfg.MaxRetries
	for i := 0; i < attempts; i++ {
		err := c.doRequest(ctx, method, path, body, out)
		if err == nil {
			c.observer.OnCallComplete(CallEvent{
				Op:        op,
				LatencyMs: time.Since(start).Milliseconds(),
				Success:   true,
			})
			return nil
		}
		lastErr = err

		// Don't retry on context cancellation/timeout or a parse failure.
		if ctx.Err() != nil || errors.Is(err, ErrBadResponse) {
			break
		}
	}

	translated := c.translate(ctx, lastErr)
	c.observer.OnCallComplete(CallEvent{
		Op:        op,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   false,
		ErrorCode: errorCode(translated),
	})
	return translated
}

func (c *httpClient) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: decoding body: %v", ErrBadResponse, err)
		}
	}
	return nil
}

// translate maps transport failures into the package error taxonomy.
func (c *httpClient) translate(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	case errors.Is(err, ErrBadResponse):
		return err
	case isConnectionError(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrBadResponse):
		return "BAD_RESPONSE"
	default:
		return "UNKNOWN"
	}
}
