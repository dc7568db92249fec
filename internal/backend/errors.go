package backend

import "errors"

var (
	// ErrUnavailable indicates the construction backend is unreachable.
	// Always recoverable: callers queue the mutation or fall back to the
	// local cache, never surface it as a hard failure.
	ErrUnavailable = errors.New("construction backend unavailable")

	// ErrTimeout indicates the request exceeded the configured budget.
	ErrTimeout = errors.New("backend request timed out")

	// ErrBadResponse indicates the backend answered with an unexpected
	// status code or an unparseable body.
	ErrBadResponse = errors.New("unexpected backend response")
)
