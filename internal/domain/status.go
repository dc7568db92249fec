package domain

import "fmt"

// legalTransitions encodes the per-stage status machine:
// pending -> in_progress -> completed, with the rectification branch
// in_progress -> rectify -> rectify_done. Both completed and rectify_done
// are terminal for the stage and unlock the successor.
var legalTransitions = map[StageStatus][]StageStatus{
	StagePending:     {StageInProgress},
	StageInProgress:  {StageCompleted, StageRectify},
	StageRectify:     {StageCompleted, StageRectifyDone, StageRectify},
	StageRectifyDone: {StageCompleted},
}

// InitialStatus returns the status a stage holds when a project timeline is
// (re)created. Material intake has no predecessor gate and starts in progress.
func InitialStatus(key StageKey) StageStatus {
	if key == StageMaterial {
		return StageInProgress
	}
	return StagePending
}

// CanTransition reports whether the status machine permits moving from one
// internal status to another. Self-transitions other than rectify->rectify
// are rejected.
func CanTransition(from, to StageStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and returns the new status, or ErrInvalidTransition.
func Transition(from, to StageStatus) (StageStatus, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Terminal reports whether a status allows the next stage to unlock.
func (s StageStatus) Terminal() bool {
	return s == StageCompleted || s == StageRectifyDone
}

// MapBackendStatus translates the backend's richer status vocabulary into
// the internal one. This is the only conversion point between the two
// vocabularies; screens and services must never re-derive it, since a
// mismatch silently corrupts the locking policy.
func MapBackendStatus(key StageKey, backend string) StageStatus {
	switch backend {
	case "checked", "passed", "completed":
		return StageCompleted
	case "rectify_exhausted":
		return StageRectifyDone
	case "rectify", "need_rectify", "pending_recheck":
		return StageRectify
	case "in_progress", "checking":
		return StageInProgress
	}
	return InitialStatus(key)
}

// BackendStatus renders an internal status in the backend vocabulary for
// status pushes. The backend accepts the canonical spelling of each state.
func BackendStatus(s StageStatus) string {
	switch s {
	case StageCompleted:
		return "completed"
	case StageRectifyDone:
		return "rectify_exhausted"
	case StageRectify:
		return "rectify"
	case StageInProgress:
		return "in_progress"
	default:
		return "pending"
	}
}
