// Package jobs defines types for Kafka event processing of executor
// job-progress and completion events.
package jobs

import (
	"time"

	"github.com/postureops/posture-backend/model"
)

// Event types emitted by external scan/report executors
const (
	// EventTypeProgress carries a 0-100 progress update for a RUNNING job.
	EventTypeProgress = "job.progress"
	// EventTypeStarted signals the executor picked the job up.
	EventTypeStarted = "job.started"
	// EventTypeCompleted carries the terminal result payload.
	EventTypeCompleted = "job.completed"
	// EventTypeFailed carries the terminal error message.
	EventTypeFailed = "job.failed"
)

// JobEvent represents an executor status event consumed from Kafka.
// The executor owns the work; this backend only manages job state.
type JobEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	JobID    string `json:"job_id"`
	Progress int    `json:"progress,omitempty"`
	Error    string `json:"error,omitempty"`

	ScanResult   *model.ScanResult   `json:"scan_result,omitempty"`
	ReportResult *model.ReportResult `json:"report_result,omitempty"`
}
