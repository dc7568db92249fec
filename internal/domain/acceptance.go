package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxRecheckAttempts bounds the recheck cycle per acceptance record.
const MaxRecheckAttempts = 3

// MinManualPassNoteLen is the minimum note length for a manual pass.
const MinManualPassNoteLen = 10

// AcceptanceRecord tracks the acceptance lifecycle of one stage. At most one
// record is active per stage; a record is superseded when an approved appeal
// revises it, and destroyed when the project timeline resets.
type AcceptanceRecord struct {
	ID             string
	StageKey       StageKey
	Severity       Severity
	Result         ResultStatus
	RecheckCount   int
	Appeal         AppealStatus
	AppealReason   string
	AppealEvidence []string
	ManualOverride bool
	AppealRevised  bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BeginRecheck increments the recheck counter and moves the record into
// pending_recheck. Fails with ErrRecheckLimitExceeded once the counter has
// reached the maximum; the counter is never incremented past it.
func (r *AcceptanceRecord) BeginRecheck(now time.Time) error {
	if r.RecheckCount >= MaxRecheckAttempts {
		return fmt.Errorf("%w: stage %s already rechecked %d times", ErrRecheckLimitExceeded, r.StageKey, r.RecheckCount)
	}
	r.RecheckCount++
	r.Result = ResultPendingRecheck
	r.UpdatedAt = now
	return nil
}

// ApplyVerdict records the analysis service's verdict for an in-flight
// recheck or initial acceptance.
func (r *AcceptanceRecord) ApplyVerdict(severity Severity, result ResultStatus, now time.Time) {
	r.Severity = severity
	r.Result = result
	r.UpdatedAt = now
}

// CanMarkPassed reports whether the user may self-certify the stage: rechecks
// must be exhausted, the finding must not be high severity, and no appeal may
// be pending. High-severity findings can never be self-certified.
func (r *AcceptanceRecord) CanMarkPassed() bool {
	if r.Severity == SeverityHigh {
		return false
	}
	if r.RecheckCount < MaxRecheckAttempts {
		return false
	}
	if r.Appeal == AppealPending {
		return false
	}
	return r.Severity == SeverityLow || r.Severity == SeverityMid
}

// MarkPassed applies a manual override. Requires at least one evidence photo
// and a note of minimum length; the override flag is recorded for audit.
func (r *AcceptanceRecord) MarkPassed(photos []string, note string, now time.Time) error {
	if !r.CanMarkPassed() {
		return fmt.Errorf("%w: stage %s (severity %s, rechecks %d, appeal %s)",
			ErrManualPassNotAllowed, r.StageKey, r.Severity, r.RecheckCount, r.Appeal)
	}
	if len(photos) == 0 || len(strings.TrimSpace(note)) < MinManualPassNoteLen {
		return fmt.Errorf("%w: need at least 1 photo and a note of %d+ characters",
			ErrInsufficientEvidence, MinManualPassNoteLen)
	}
	r.Result = ResultPassed
	r.ManualOverride = true
	r.UpdatedAt = now
	return nil
}

// BeginAppeal files an appeal. Allowed only while the finding stands
// (rectify_needed, or rechecks exhausted) and no appeal is already pending.
// The reason and supporting evidence travel on the record to the external
// reviewer channel.
func (r *AcceptanceRecord) BeginAppeal(reason string, evidence []string, now time.Time) error {
	if r.Appeal == AppealPending {
		return fmt.Errorf("%w: appeal already pending for stage %s", ErrAppealNotAllowed, r.StageKey)
	}
	if r.Result != ResultRectifyNeeded && !r.rechecksExhausted() {
		return fmt.Errorf("%w: stage %s result is %s", ErrAppealNotAllowed, r.StageKey, r.Result)
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: appeal reason required", ErrInsufficientEvidence)
	}
	if len(evidence) == 0 {
		return fmt.Errorf("%w: appeal evidence photos required", ErrInsufficientEvidence)
	}
	r.Appeal = AppealPending
	r.AppealReason = strings.TrimSpace(reason)
	r.AppealEvidence = evidence
	r.UpdatedAt = now
	return nil
}

// ResolveAppeal applies the reviewer's decision. An approved appeal
// supersedes the record: the result becomes passed and the record is marked
// appeal-revised. A rejected appeal leaves the finding standing.
func (r *AcceptanceRecord) ResolveAppeal(approved bool, now time.Time) error {
	if r.Appeal != AppealPending {
		return fmt.Errorf("%w: no pending appeal for stage %s", ErrAppealNotAllowed, r.StageKey)
	}
	if approved {
		r.Appeal = AppealApproved
		r.Result = ResultPassed
		r.AppealRevised = true
	} else {
		r.Appeal = AppealRejected
	}
	r.UpdatedAt = now
	return nil
}

func (r *AcceptanceRecord) rechecksExhausted() bool {
	return r.RecheckCount >= MaxRecheckAttempts
}
