package analysis

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

	"github.com/lianhaeming/renoguard/internal/domain"
)

// Verdict is the analysis service's judgement of submitted evidence.
type Verdict struct {
	Severity domain.Severity
	Result   domain.ResultStatus
}

// Client provides access to the AI acceptance-analysis service.
type Client interface {
	// Submit uploads evidence for a stage and returns a handle for polling.
	Submit(ctx context.Context, stageCode string, evidenceURLs []string) (string, error)

	// AwaitVerdict polls for the verdict under the configured wall-clock
	// budget. Cancelling the context stops the poll immediately; no verdict
	// is delivered after cancellation.
	AwaitVerdict(ctx context.Context, id string) (*Verdict, error)
}

type httpClient struct {
	cfg  Config
	http *http.Client
}

// NewHTTPClient creates a Client for the analysis service.
func NewHTTPClient(cfg Config) Client {
	return &httpClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

type submitRequest struct {
	Stage    string   `json:"stage"`
	Evidence []string `json:"evidence"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type verdictResponse struct {
	Done         bool   `json:"done"`
	Severity     string `json:"severity"`
	ResultStatus string `json:"result_status"`
}

func (c *httpClient) Submit(ctx context.Context, stageCode string, evidenceURLs []string) (string, error) {
	data, err := json.Marshal(submitRequest{Stage: stageCode, Evidence: evidenceURLs})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/analysis", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, string(body))
	}

	var sr submitResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("%w: decoding body: %v", ErrBadResponse, err)
	}
	if sr.ID == "" {
		return "", fmt.Errorf("%w: empty analysis id", ErrBadResponse)
	}
	return sr.ID, nil
}

func (c *httpClient) AwaitVerdict(ctx context.Context, id string) (*Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.BudgetMs)*time.Millisecond)
	defer cancel()

	ticker := time.NewTicker(time.Duration(c.cfg.PollIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		verdict, done, err := c.pollOnce(ctx, id)
		if err != nil && !isTransient(err) {
			return nil, err
		}
		if done {
			return verdict, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: no verdict within %dms", ErrTimeout, c.cfg.BudgetMs)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *httpClient) pollOnce(ctx context.Context, id string) (*Verdict, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/analysis/"+id, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transient: keep polling until the budget runs out.
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, string(body))
	}

	var vr verdictResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, false, fmt.Errorf("%w: decoding body: %v", ErrBadResponse, err)
	}
	if !vr.Done {
		return nil, false, nil
	}

	verdict, err := parseVerdict(vr)
	if err != nil {
		return nil, false, err
	}
	return verdict, true, nil
}

func parseVerdict(vr verdictResponse) (*Verdict, error) {
	severity := domain.Severity(vr.Severity)
	switch severity {
	case domain.SeverityNone, domain.SeverityLow, domain.SeverityMid, domain.SeverityHigh:
	default:
		return nil, fmt.Errorf("%w: severity %q", ErrBadResponse, vr.Severity)
	}
	result := domain.ResultStatus(vr.ResultStatus)
	switch result {
	case domain.ResultPassed, domain.ResultRectifyNeeded:
	default:
		return nil, fmt.Errorf("%w: result_status %q", ErrBadResponse, vr.ResultStatus)
	}
	return &Verdict{Severity: severity, Result: result}, nil
}

func isTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
