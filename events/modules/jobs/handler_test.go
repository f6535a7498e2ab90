package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postureops/posture-backend/internal/lifecycle"
	"github.com/postureops/posture-backend/model"
)

type fakeTransitioner struct {
	calls []string
	err   error
}

func (f *fakeTransitioner) Start(_ context.Context, jobID string) (*model.Job, error) {
	f.calls = append(f.calls, "start:"+jobID)
	return nil, f.err
}

func (f *fakeTransitioner) SetProgress(_ context.Context, jobID string, progress int) (*model.Job, error) {
	f.calls = append(f.calls, "progress:"+jobID)
	return nil, f.err
}

func (f *fakeTransitioner) Complete(_ context.Context, jobID string, _ *model.ScanResult, _ *model.ReportResult) (*model.Job, error) {
	f.calls = append(f.calls, "complete:"+jobID)
	return nil, f.err
}

func (f *fakeTransitioner) Fail(_ context.Context, jobID string, _ string) (*model.Job, error) {
	f.calls = append(f.calls, "fail:"+jobID)
	return nil, f.err
}

func marshal(t *testing.T, event JobEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return data
}

func TestHandleJobEvent_Dispatch(t *testing.T) {
	tests := []struct {
		eventType string
		wantCall  string
	}{
		{EventTypeStarted, "start:j1"},
		{EventTypeProgress, "progress:j1"},
		{EventTypeCompleted, "complete:j1"},
		{EventTypeFailed, "fail:j1"},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			m := &fakeTransitioner{}
			msg := marshal(t, JobEvent{EventType: tt.eventType, JobID: "j1"})
			require.NoError(t, HandleJobEvent(context.Background(), msg, m))
			assert.Equal(t, []string{tt.wantCall}, m.calls)
		})
	}
}

func TestHandleJobEvent_RejectsMissingJobID(t *testing.T) {
	m := &fakeTransitioner{}
	msg := marshal(t, JobEvent{EventType: EventTypeStarted})
	assert.Error(t, HandleJobEvent(context.Background(), msg, m))
	assert.Empty(t, m.calls)
}

func TestHandleJobEvent_RejectsUnknownType(t *testing.T) {
	m := &fakeTransitioner{}
	msg := marshal(t, JobEvent{EventType: "job.rebooted", JobID: "j1"})
	assert.Error(t, HandleJobEvent(context.Background(), msg, m))
}

func TestHandleJobEvent_RejectsMalformedPayload(t *testing.T) {
	m := &fakeTransitioner{}
	assert.Error(t, HandleJobEvent(context.Background(), []byte("{not json"), m))
}

func TestHandleJobEvent_DropsStaleTransitions(t *testing.T) {
	// A completion racing a cancellation must not fail the consumer loop
	m := &fakeTransitioner{err: lifecycle.ErrAlreadyTerminal}
	msg := marshal(t, JobEvent{EventType: EventTypeCompleted, JobID: "j1"})
	assert.NoError(t, HandleJobEvent(context.Background(), msg, m))

	m = &fakeTransitioner{err: lifecycle.ErrInvalidTransition}
	msg = marshal(t, JobEvent{EventType: EventTypeStarted, JobID: "j1"})
	assert.NoError(t, HandleJobEvent(context.Background(), msg, m))
}
