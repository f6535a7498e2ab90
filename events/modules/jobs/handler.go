// Package jobs handles Kafka event processing for executor job events.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/postureops/posture-backend/internal/lifecycle"
	"github.com/postureops/posture-backend/model"
)

// JobTransitioner is the slice of the lifecycle machine the handler drives
type JobTransitioner interface {
	Start(ctx context.Context, jobID string) (*model.Job, error)
	SetProgress(ctx context.Context, jobID string, progress int) (*model.Job, error)
	Complete(ctx context.Context, jobID string, scan *model.ScanResult, report *model.ReportResult) (*model.Job, error)
	Fail(ctx context.Context, jobID string, errMsg string) (*model.Job, error)
}

// HandleJobEvent processes one executor event from Kafka and requests the
// matching lifecycle transition. Events racing a cancellation (the job
// went terminal before the executor noticed) are dropped with a warning
// instead of failing the consumer loop.
func HandleJobEvent(ctx context.Context, msg []byte, machine JobTransitioner) error {
	var event JobEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("failed to unmarshal JobEvent: %w", err)
	}

	if event.JobID == "" {
		return fmt.Errorf("invalid event: missing job_id")
	}

	var err error
	switch event.EventType {
	case EventTypeStarted:
		_, err = machine.Start(ctx, event.JobID)
	case EventTypeProgress:
		_, err = machine.SetProgress(ctx, event.JobID, event.Progress)
	case EventTypeCompleted:
		_, err = machine.Complete(ctx, event.JobID, event.ScanResult, event.ReportResult)
	case EventTypeFailed:
		_, err = machine.Fail(ctx, event.JobID, event.Error)
	default:
		return fmt.Errorf("unknown event type %q for job %s", event.EventType, event.JobID)
	}

	if err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyTerminal) || errors.Is(err, lifecycle.ErrInvalidTransition) || errors.Is(err, lifecycle.ErrInvalidProgress) {
			log.Printf("Dropping stale %s event for job %s: %v", event.EventType, event.JobID, err)
			return nil
		}
		return fmt.Errorf("failed to apply %s for job %s: %w", event.EventType, event.JobID, err)
	}

	log.Printf("Applied %s for job %s", event.EventType, event.JobID)
	return nil
}
