package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lianhaeming/renoguard/internal/analysis"
	"github.com/lianhaeming/renoguard/internal/backend"
	"github.com/lianhaeming/renoguard/internal/domain"
	"github.com/lianhaeming/renoguard/internal/repository"
	"github.com/lianhaeming/renoguard/internal/testutil"
)

// fakeBackend is an in-memory backend.Client with a toggleable outage. A
// non-nil hardErr makes every push fail with a non-retryable error.
type fakeBackend struct {
	mu           sync.Mutex
	down         bool
	hardErr      error
	report       *backend.ScheduleReport
	startDates   []time.Time
	statusPushes []statusPush
	calPushes    []calPush
}

type statusPush struct {
	code   string
	status string
}

type calPush struct {
	code string
	end  time.Time
}

func (f *fakeBackend) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeBackend) setReport(r *backend.ScheduleReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.report = r
}

func (f *fakeBackend) setHardErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hardErr = err
}

func (f *fakeBackend) FetchSchedule(ctx context.Context) (*backend.ScheduleReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down || f.report == nil {
		return nil, backend.ErrUnavailable
	}
	return f.report, nil
}

func (f *fakeBackend) PushStartDate(ctx context.Context, start time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return backend.ErrUnavailable
	}
	f.startDates = append(f.startDates, start)
	return nil
}

func (f *fakeBackend) PushStageStatus(ctx context.Context, code, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return backend.ErrUnavailable
	}
	if f.hardErr != nil {
		return f.hardErr
	}
	f.statusPushes = append(f.statusPushes, statusPush{code: code, status: status})
	return nil
}

func (f *fakeBackend) PushCalibration(ctx context.Context, code string, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return backend.ErrUnavailable
	}
	if f.hardErr != nil {
		return f.hardErr
	}
	f.calPushes = append(f.calPushes, calPush{code: code, end: end})
	return nil
}

// fakeAnalyzer is an in-memory analysis.Client returning a scripted verdict.
type fakeAnalyzer struct {
	verdict analysis.Verdict
	err     error
	submits int
}

func (f *fakeAnalyzer) Submit(ctx context.Context, stageCode string, evidenceURLs []string) (string, error) {
	f.submits++
	return "an-test", nil
}

func (f *fakeAnalyzer) AwaitVerdict(ctx context.Context, id string) (*analysis.Verdict, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := f.verdict
	return &v, nil
}

type testEnv struct {
	schedule ScheduleService
	accept   AcceptanceService
	backend  *fakeBackend
	analyzer *fakeAnalyzer
	states   repository.StateRepo
	accepts  repository.AcceptanceRepo
	logs     repository.StageLogRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	states := repository.NewSQLiteStateRepo(database, uow)
	accepts := repository.NewSQLiteAcceptanceRepo(database)
	logs := repository.NewSQLiteStageLogRepo(database)

	fb := &fakeBackend{}
	fa := &fakeAnalyzer{verdict: analysis.Verdict{Severity: domain.SeverityNone, Result: domain.ResultPassed}}

	schedule := NewScheduleService(fb, states, accepts, logs)
	accept := NewAcceptanceService(schedule, fa, accepts)

	return &testEnv{
		schedule: schedule,
		accept:   accept,
		backend:  fb,
		analyzer: fa,
		states:   states,
		accepts:  accepts,
		logs:     logs,
	}
}

// completeStages drives the first n stages to completed so later stages
// unlock, with the backend up so nothing queues.
func completeStages(t *testing.T, env *testEnv, n int) {
	t.Helper()
	ctx := context.Background()
	defs := domain.Stages()
	for i := 0; i < n; i++ {
		key := defs[i].Key
		st, err := env.schedule.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if st.StageByKey(key).Status == domain.StagePending {
			if err := env.schedule.ApplyStageStatus(ctx, key, domain.StageInProgress, domain.OriginLocal); err != nil {
				t.Fatalf("starting stage %s: %v", key, err)
			}
		}
		if err := env.schedule.ApplyStageStatus(ctx, key, domain.StageCompleted, domain.OriginLocal); err != nil {
			t.Fatalf("completing stage %s: %v", key, err)
		}
	}
}
