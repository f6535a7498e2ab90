package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postureops/posture-backend/model"
)

type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func newFakeJobStore(jobs ...*model.Job) *fakeJobStore {
	s := &fakeJobStore{jobs: make(map[string]*model.Job)}
	for _, j := range jobs {
		s.jobs[j.Key] = j
	}
	return s
}

func (s *fakeJobStore) GetJob(_ context.Context, jobID string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, nil
	}
	copied := *j
	return &copied, nil
}

func (s *fakeJobStore) SaveJobState(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.Key] = &copied
	return nil
}

type recordingHook struct {
	mu       sync.Mutex
	assetIDs []string
}

func (h *recordingHook) RecomputeAssets(_ context.Context, assetIDs []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.assetIDs = append(h.assetIDs, assetIDs...)
	return nil
}

func pendingJob(id string, kind model.JobKind) *model.Job {
	j := model.NewJob(kind)
	j.Key = id
	return j
}

func fixedClock() func() time.Time {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestStart_FromPending(t *testing.T) {
	store := newFakeJobStore(pendingJob("j1", model.JobKindScan))
	m := NewMachine(store, nil, zap.NewNop()).WithClock(fixedClock())

	job, err := m.Start(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobRunning, job.State)
	require.NotNil(t, job.StartedAt)
	assert.Equal(t, fixedClock()(), *job.StartedAt)
}

func TestStart_RejectsNonPending(t *testing.T) {
	store := newFakeJobStore(pendingJob("j1", model.JobKindScan))
	m := NewMachine(store, nil, zap.NewNop())

	_, err := m.Start(context.Background(), "j1")
	require.NoError(t, err)

	_, err = m.Start(context.Background(), "j1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestComplete_ScanTriggersRecompute(t *testing.T) {
	store := newFakeJobStore(pendingJob("j1", model.JobKindScan))
	hook := &recordingHook{}
	m := NewMachine(store, hook, zap.NewNop())

	_, err := m.Start(context.Background(), "j1")
	require.NoError(t, err)

	result := &model.ScanResult{AssetIDs: []string{"a1", "a2"}, FindingsTotal: 7}
	job, err := m.Complete(context.Background(), "j1", result, nil)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, job.State)
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, []string{"a1", "a2"}, hook.assetIDs)
}

func TestComplete_ReportHasNoRecompute(t *testing.T) {
	store := newFakeJobStore(pendingJob("r1", model.JobKindReport))
	hook := &recordingHook{}
	m := NewMachine(store, hook, zap.NewNop())

	_, err := m.Start(context.Background(), "r1")
	require.NoError(t, err)

	result := &model.ReportResult{SizeBytes: 4096, Locator: "reports/r1.bin"}
	job, err := m.Complete(context.Background(), "r1", nil, result)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, job.State)
	require.NotNil(t, job.ReportResult)
	assert.Equal(t, int64(4096), job.ReportResult.SizeBytes)
	assert.Empty(t, hook.assetIDs)
}

func TestComplete_RejectsMismatchedResult(t *testing.T) {
	store := newFakeJobStore(pendingJob("j1", model.JobKindScan), pendingJob("r1", model.JobKindReport))
	hook := &recordingHook{}
	m := NewMachine(store, hook, zap.NewNop())

	_, err := m.Start(context.Background(), "j1")
	require.NoError(t, err)
	_, err = m.Start(context.Background(), "r1")
	require.NoError(t, err)

	// A scan without a scan result would silently skip the recompute
	_, err = m.Complete(context.Background(), "j1", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidResult)
	_, err = m.Complete(context.Background(), "j1", nil, &model.ReportResult{Locator: "reports/x.bin"})
	assert.ErrorIs(t, err, ErrInvalidResult)

	_, err = m.Complete(context.Background(), "r1", &model.ScanResult{AssetIDs: []string{"a1"}}, nil)
	assert.ErrorIs(t, err, ErrInvalidResult)

	// The rejected payloads left both jobs RUNNING and untouched
	job, err := m.Complete(context.Background(), "j1", &model.ScanResult{AssetIDs: []string{"a1"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, job.State)
	assert.Equal(t, []string{"a1"}, hook.assetIDs)
}

func TestComplete_RejectsFromPending(t *testing.T) {
	store := newFakeJobStore(pendingJob("j1", model.JobKindScan))
	m := NewMachine(store, nil, zap.NewNop())

	_, err := m.Complete(context.Background(), "j1", &model.ScanResult{}, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompletedJobIsImmutable(t *testing.T) {
	store := newFakeJobStore(pendingJob("j1", model.JobKindScan))
	m := NewMachine(store, nil, zap.NewNop())

	_, err := m.Start(context.Background(), "j1")
	require.NoError(t, err)
	_, err = m.Complete(context.Background(), "j1", &model.ScanResult{}, nil)
	require.NoError(t, err)

	_, err = m.Start(context.Background(), "j1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.Fail(context.Background(), "j1", "boom")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.Cancel(context.Background(), "j1")
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestFail_FromRunningAndPending(t *testing.T) {
	store := newFakeJobStore(pendingJob("j1", model.JobKindScan), pendingJob("j2", model.JobKindScan))
	m := NewMachine(store, nil, zap.NewNop())

	// RUNNING -> FAILED
	_, err := m.Start(context.Background(), "j1")
	require.NoError(t, err)
	job, err := m.Fail(context.Background(), "j1", "executor crashed")
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, job.State)
	assert.Equal(t, "executor crashed", job.Error)

	// PENDING -> FAILED, for jobs rejected before starting
	job, err = m.Fail(context.Background(), "j2", "invalid scan config")
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, job.State)
}

func TestCancel_PendingAndRunning(t *testing.T) {
	store := newFakeJobStore(pendingJob("j1", model.JobKindScan), pendingJob("j2", model.JobKindScan))
	m := NewMachine(store, nil, zap.NewNop())

	job, err := m.Cancel(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobCancelled, job.State)
	assert.True(t, job.CancelRequested)

	_, err = m.Start(context.Background(), "j2")
	require.NoError(t, err)
	job, err = m.Cancel(context.Background(), "j2")
	require.NoError(t, err)
	assert.Equal(t, model.JobCancelled, job.State)
	assert.True(t, job.CancelRequested)
}

func TestSetProgress(t *testing.T) {
	store := newFakeJobStore(pendingJob("j1", model.JobKindScan))
	m := NewMachine(store, nil, zap.NewNop())

	// Rejected while PENDING
	_, err := m.SetProgress(context.Background(), "j1", 10)
	assert.ErrorIs(t, err, ErrInvalidProgress)

	_, err = m.Start(context.Background(), "j1")
	require.NoError(t, err)

	job, err := m.SetProgress(context.Background(), "j1", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, job.Progress)

	_, err = m.SetProgress(context.Background(), "j1", 101)
	assert.ErrorIs(t, err, ErrInvalidProgress)
	_, err = m.SetProgress(context.Background(), "j1", -1)
	assert.ErrorIs(t, err, ErrInvalidProgress)
}

func TestTransition_UnknownJob(t *testing.T) {
	m := NewMachine(newFakeJobStore(), nil, zap.NewNop())
	_, err := m.Start(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestTransitions_SerializedPerJob(t *testing.T) {
	store := newFakeJobStore(pendingJob("j1", model.JobKindScan))
	m := NewMachine(store, nil, zap.NewNop())

	// Many goroutines race to start the same job; exactly one may win.
	var wg sync.WaitGroup
	wins := make(chan struct{}, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Start(context.Background(), "j1"); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}
