package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postureops/posture-backend/model"
)

type fakeScheduleStore struct {
	schedules []model.ScheduledJob
	saved     map[string]model.ScheduledJob
	created   []model.Job
	createErr error
}

func newFakeScheduleStore(schedules ...model.ScheduledJob) *fakeScheduleStore {
	return &fakeScheduleStore{
		schedules: schedules,
		saved:     make(map[string]model.ScheduledJob),
	}
}

func (f *fakeScheduleStore) ListEnabledSchedules(_ context.Context) ([]model.ScheduledJob, error) {
	var out []model.ScheduledJob
	for _, s := range f.schedules {
		if s.Spec.Enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScheduleStore) SaveSchedule(_ context.Context, schedule *model.ScheduledJob) error {
	f.saved[schedule.Key] = *schedule
	return nil
}

func (f *fakeScheduleStore) CreateJob(_ context.Context, job *model.Job) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	job.Key = fmt.Sprintf("job-%d", len(f.created)+1)
	f.created = append(f.created, *job)
	return job.Key, nil
}

func hourlySchedule(key string, nextRun time.Time, enabled bool) model.ScheduledJob {
	s := model.NewScheduledJob()
	s.Key = key
	s.Kind = model.JobKindScan
	s.Spec = model.ScheduleSpec{Frequency: model.FrequencyHourly, Enabled: enabled}
	s.NextRun = nextRun
	return *s
}

func TestTick_FiresDueSchedule(t *testing.T) {
	now := ts(2026, time.March, 10, 14, 0)
	store := newFakeScheduleStore(hourlySchedule("s1", now.Add(-time.Minute), true))
	sched := New(store, zap.NewNop())

	require.NoError(t, sched.Tick(context.Background(), now))

	require.Len(t, store.created, 1)
	assert.Equal(t, model.JobPending, store.created[0].State)
	assert.Equal(t, model.JobKindScan, store.created[0].Kind)
	assert.Equal(t, "s1", store.created[0].ScheduleID)

	saved, ok := store.saved["s1"]
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour), saved.NextRun)
	require.NotNil(t, saved.LastRun)
	assert.Equal(t, now, *saved.LastRun)
}

func TestTick_SkipsNotYetDue(t *testing.T) {
	now := ts(2026, time.March, 10, 14, 0)
	store := newFakeScheduleStore(hourlySchedule("s1", now.Add(time.Minute), true))
	sched := New(store, zap.NewNop())

	require.NoError(t, sched.Tick(context.Background(), now))
	assert.Empty(t, store.created)
	assert.Empty(t, store.saved)
}

func TestTick_NeverTouchesDisabledSchedules(t *testing.T) {
	now := ts(2026, time.March, 10, 14, 0)
	store := newFakeScheduleStore(hourlySchedule("s1", now.Add(-time.Hour), false))
	sched := New(store, zap.NewNop())

	require.NoError(t, sched.Tick(context.Background(), now))
	assert.Empty(t, store.created)
	assert.Empty(t, store.saved)
}

func TestTick_MissedTicksNotBackfilled(t *testing.T) {
	// The schedule was due six hours ago (process downtime). One job fires
	// and nextRun is computed from now, not from the stale nextRun.
	now := ts(2026, time.March, 10, 14, 0)
	store := newFakeScheduleStore(hourlySchedule("s1", now.Add(-6*time.Hour), true))
	sched := New(store, zap.NewNop())

	require.NoError(t, sched.Tick(context.Background(), now))

	assert.Len(t, store.created, 1, "downtime must not produce a backlog of jobs")
	assert.Equal(t, now.Add(time.Hour), store.saved["s1"].NextRun)
}

func TestTick_CreateFailureLeavesScheduleUntouched(t *testing.T) {
	now := ts(2026, time.March, 10, 14, 0)
	store := newFakeScheduleStore(hourlySchedule("s1", now.Add(-time.Minute), true))
	store.createErr = fmt.Errorf("db unavailable")
	sched := New(store, zap.NewNop())

	// Tick itself succeeds; the failure is contained per schedule
	require.NoError(t, sched.Tick(context.Background(), now))
	assert.Empty(t, store.saved, "a schedule must not advance when job creation failed")
}

func TestTick_SkipsUnknownFrequency(t *testing.T) {
	// A corrupt frequency document has a zero nextRun and would otherwise
	// be due on every tick, minting one job per interval forever.
	now := ts(2026, time.March, 10, 14, 0)
	corrupt := hourlySchedule("s1", time.Time{}, true)
	corrupt.Spec.Frequency = model.Frequency("FORTNIGHTLY")
	store := newFakeScheduleStore(corrupt)
	sched := New(store, zap.NewNop())

	for range 3 {
		require.NoError(t, sched.Tick(context.Background(), now))
	}
	assert.Empty(t, store.created)
	assert.Empty(t, store.saved)
}

func TestTick_MultipleSchedules(t *testing.T) {
	now := ts(2026, time.March, 10, 14, 0)
	store := newFakeScheduleStore(
		hourlySchedule("due-1", now.Add(-time.Minute), true),
		hourlySchedule("later", now.Add(30*time.Minute), true),
		hourlySchedule("due-2", now, true),
	)
	sched := New(store, zap.NewNop())

	require.NoError(t, sched.Tick(context.Background(), now))
	assert.Len(t, store.created, 2)
}
