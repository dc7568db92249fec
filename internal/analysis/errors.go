package analysis

import "errors"

var (
	// ErrTimeout indicates the verdict poll exceeded its wall-clock budget.
	// Surfaced to the user as "try again"; stage status is never mutated.
	ErrTimeout = errors.New("analysis verdict timed out")

	// ErrUnavailable indicates the analysis service is unreachable.
	ErrUnavailable = errors.New("analysis service unavailable")

	// ErrBadResponse indicates an unparseable or unexpected service reply.
	ErrBadResponse = errors.New("unexpected analysis response")
)
