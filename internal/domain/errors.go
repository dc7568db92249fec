package domain

import "errors"

var (
	// ErrUnknownStage indicates a stage key outside the closed six-stage set.
	ErrUnknownStage = errors.New("unknown stage key")

	// ErrUnknownStageCode indicates a backend short code outside S00..S05.
	ErrUnknownStageCode = errors.New("unknown backend stage code")

	// ErrRecheckLimitExceeded indicates the bounded recheck cycle (3 attempts)
	// has been exhausted for a stage.
	ErrRecheckLimitExceeded = errors.New("recheck limit exceeded")

	// ErrInsufficientEvidence indicates a manual pass was attempted without
	// the required photos or note.
	ErrInsufficientEvidence = errors.New("insufficient evidence for manual pass")

	// ErrManualPassNotAllowed indicates a manual pass was attempted before
	// rechecks were exhausted, with a high-severity finding, or while an
	// appeal is pending.
	ErrManualPassNotAllowed = errors.New("manual pass not allowed")

	// ErrAppealNotAllowed indicates an appeal was filed in a state that does
	// not permit one.
	ErrAppealNotAllowed = errors.New("appeal not allowed")

	// ErrInvalidTransition indicates a stage status change that the state
	// machine does not permit.
	ErrInvalidTransition = errors.New("invalid stage status transition")
)
