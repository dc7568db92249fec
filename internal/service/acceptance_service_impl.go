package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lianhaeming/renoguard/internal/analysis"
	"github.com/lianhaeming/renoguard/internal/domain"
	"github.com/lianhaeming/renoguard/internal/repository"
	"github.com/lianhaeming/renoguard/internal/scheduler"
)

// acceptanceService implements AcceptanceService. It drives the recheck and
// appeal workflows and routes every stage status change through the
// reconciler so locking and sync stay consistent.
type acceptanceService struct {
	schedule ScheduleService
	analyzer analysis.Client
	accepts  repository.AcceptanceRepo
	now      func() time.Time
}

// NewAcceptanceService creates the acceptance workflow service.
func NewAcceptanceService(schedule ScheduleService, analyzer analysis.Client, accepts repository.AcceptanceRepo) AcceptanceService {
	return &acceptanceService{
		schedule: schedule,
		analyzer: analyzer,
		accepts:  accepts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *acceptanceService) SubmitAcceptance(ctx context.Context, key domain.StageKey, evidenceURLs []string) (*domain.AcceptanceRecord, error) {
	if len(evidenceURLs) == 0 {
		return nil, fmt.Errorf("%w: evidence photos required", domain.ErrInsufficientEvidence)
	}
	if err := s.requireUnlocked(ctx, key); err != nil {
		return nil, err
	}

	// An unlocked stage that has not been touched yet moves to in_progress
	// on its first submission.
	state, err := s.schedule.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if st := state.StageByKey(key); st != nil && st.Status == domain.StagePending {
		if err := s.schedule.ApplyStageStatus(ctx, key, domain.StageInProgress, domain.OriginLocal); err != nil {
			return nil, err
		}
	}

	rec, err := s.accepts.GetActive(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		now := s.now()
		rec = &domain.AcceptanceRecord{
			ID:        uuid.New().String(),
			StageKey:  key,
			Severity:  domain.SeverityNone,
			Result:    domain.ResultPending,
			Appeal:    domain.AppealNone,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.accepts.Put(ctx, rec); err != nil {
			return nil, err
		}
	}

	verdict, err := s.analyze(ctx, key, evidenceURLs)
	if err != nil {
		// Timeout or cancellation: the stage keeps its status and the user
		// may simply retry.
		return nil, err
	}

	rec.ApplyVerdict(verdict.Severity, verdict.Result, s.now())
	if err := s.accepts.Put(ctx, rec); err != nil {
		return nil, err
	}

	switch verdict.Result {
	case domain.ResultPassed:
		err = s.schedule.ApplyStageStatus(ctx, key, domain.StageCompleted, domain.OriginLocal)
	case domain.ResultRectifyNeeded:
		err = s.schedule.ApplyStageStatus(ctx, key, domain.StageRectify, domain.OriginLocal)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *acceptanceService) SubmitRecheck(ctx context.Context, key domain.StageKey, evidenceURLs []string) (*domain.AcceptanceRecord, error) {
	if len(evidenceURLs) == 0 {
		return nil, fmt.Errorf("%w: evidence photos required", domain.ErrInsufficientEvidence)
	}
	rec, err := s.requireActiveRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	switch rec.Result {
	case domain.ResultRectifyNeeded:
		if err := rec.BeginRecheck(s.now()); err != nil {
			return nil, err
		}
		if err := s.accepts.Put(ctx, rec); err != nil {
			return nil, err
		}
	case domain.ResultPendingRecheck:
		// A previous attempt never received its verdict (timed-out poll).
		// Retry it without consuming another attempt.
	default:
		return nil, fmt.Errorf("recheck requires a standing rectification finding, stage %s is %s", key, rec.Result)
	}

	verdict, err := s.analyze(ctx, key, evidenceURLs)
	if err != nil {
		// No verdict arrived; the record stays in pending_recheck and the
		// stage status is untouched. The next submission retries this
		// attempt instead of consuming a new one.
		return nil, err
	}

	rec.ApplyVerdict(verdict.Severity, verdict.Result, s.now())
	if err := s.accepts.Put(ctx, rec); err != nil {
		return nil, err
	}

	switch verdict.Result {
	case domain.ResultPassed:
		if err := s.schedule.ApplyStageStatus(ctx, key, domain.StageCompleted, domain.OriginLocal); err != nil {
			return nil, err
		}
	case domain.ResultRectifyNeeded:
		if rec.RecheckCount >= domain.MaxRecheckAttempts {
			// Rechecks exhausted: the stage settles in rectify_done, which
			// still unlocks the successor; the user keeps the appeal and
			// (severity permitting) manual-override paths.
			if err := s.schedule.ApplyStageStatus(ctx, key, domain.StageRectifyDone, domain.OriginLocal); err != nil {
				return nil, err
			}
		}
	}
	return rec, nil
}

func (s *acceptanceService) ActiveRecord(ctx context.Context, key domain.StageKey) (*domain.AcceptanceRecord, error) {
	if _, err := domain.StageByKey(key); err != nil {
		return nil, err
	}
	return s.accepts.GetActive(ctx, key)
}

func (s *acceptanceService) CanMarkPassed(ctx context.Context, key domain.StageKey) (bool, error) {
	rec, err := s.ActiveRecord(ctx, key)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	return rec.CanMarkPassed(), nil
}

func (s *acceptanceService) MarkPassed(ctx context.Context, key domain.StageKey, photos []string, note string) error {
	rec, err := s.requireActiveRecord(ctx, key)
	if err != nil {
		return err
	}
	if err := rec.MarkPassed(photos, note, s.now()); err != nil {
		return err
	}
	if err := s.accepts.Put(ctx, rec); err != nil {
		return err
	}
	return s.schedule.ApplyStageStatus(ctx, key, domain.StageCompleted, domain.OriginLocal)
}

func (s *acceptanceService) SubmitAppeal(ctx context.Context, key domain.StageKey, reason string, evidenceURLs []string) error {
	rec, err := s.requireActiveRecord(ctx, key)
	if err != nil {
		return err
	}
	if err := rec.BeginAppeal(reason, evidenceURLs, s.now()); err != nil {
		return err
	}
	return s.accepts.Put(ctx, rec)
}

func (s *acceptanceService) ResolveAppeal(ctx context.Context, key domain.StageKey, approved bool) error {
	rec, err := s.requireActiveRecord(ctx, key)
	if err != nil {
		return err
	}
	if err := rec.ResolveAppeal(approved, s.now()); err != nil {
		return err
	}
	if err := s.accepts.Put(ctx, rec); err != nil {
		return err
	}
	if !approved {
		// The finding stands; the user continues the ordinary recheck path.
		return nil
	}

	// The approved appeal supersedes the record, so a future rectification
	// cycle on this stage opens a fresh one with a zeroed recheck counter.
	if err := s.accepts.Supersede(ctx, rec.ID); err != nil {
		return err
	}
	return s.schedule.ApplyStageStatus(ctx, key, domain.StageCompleted, domain.OriginLocal)
}

// analyze submits evidence and blocks on the verdict poll.
func (s *acceptanceService) analyze(ctx context.Context, key domain.StageKey, evidenceURLs []string) (*analysis.Verdict, error) {
	code, err := domain.BackendCode(key)
	if err != nil {
		return nil, err
	}
	id, err := s.analyzer.Submit(ctx, code, evidenceURLs)
	if err != nil {
		return nil, err
	}
	return s.analyzer.AwaitVerdict(ctx, id)
}

func (s *acceptanceService) requireUnlocked(ctx context.Context, key domain.StageKey) error {
	def, err := domain.StageByKey(key)
	if err != nil {
		return err
	}
	state, err := s.schedule.Snapshot(ctx)
	if err != nil {
		return err
	}
	if scheduler.IsLocked(def.OrderIndex, state.Stages) {
		return fmt.Errorf("%w: %s", ErrStageLocked, key)
	}
	return nil
}

func (s *acceptanceService) requireActiveRecord(ctx context.Context, key domain.StageKey) (*domain.AcceptanceRecord, error) {
	rec, err := s.ActiveRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: stage %s", ErrNoAcceptance, key)
	}
	return rec, nil
}
