package model

import "time"

// JobKind distinguishes the two long-running background workloads
type JobKind string

const (
	// JobKindScan represents a vulnerability scan of one or more assets.
	JobKindScan JobKind = "SCAN"
	// JobKindReport represents generation of a posture report.
	JobKindReport JobKind = "REPORT"
)

// JobState represents the lifecycle state of a background job
type JobState string

const (
	// JobPending is the initial state of every job.
	JobPending JobState = "PENDING"
	// JobRunning means the external executor has picked the job up.
	JobRunning JobState = "RUNNING"
	// JobCompleted is terminal: the work finished successfully.
	JobCompleted JobState = "COMPLETED"
	// JobFailed is terminal: the work errored and is never auto-retried.
	JobFailed JobState = "FAILED"
	// JobCancelled is terminal: the job was cancelled before or during execution.
	JobCancelled JobState = "CANCELLED"
)

// IsTerminal reports whether the state permits no further transitions
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// ScanResult is the payload attached when a scan job completes
type ScanResult struct {
	AssetIDs      []string `json:"asset_ids"`      // Assets covered by the scan
	FindingsTotal int      `json:"findings_total"` // All findings discovered
	FindingsNew   int      `json:"findings_new"`   // Findings not previously linked
}

// ReportResult is the payload attached when a report job completes
type ReportResult struct {
	SizeBytes int64  `json:"size_bytes"`
	Locator   string `json:"locator"` // Download location of the generated file
}

// Job represents a scan or report job driven by the lifecycle state machine.
// Only the state machine mutates a job; the API layer requests transitions.
type Job struct {
	Key         string     `json:"_key,omitempty"`
	Kind        JobKind    `json:"kind"`
	State       JobState   `json:"state"`
	ScheduleID  string     `json:"schedule_id,omitempty"` // Set when created by the scheduler
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Progress    int        `json:"progress"` // 0-100, writable only while RUNNING

	// CancelRequested is the cooperative cancellation flag observed by the
	// external executor while the job is still RUNNING.
	CancelRequested bool `json:"cancel_requested"`

	ScanResult   *ScanResult   `json:"scan_result,omitempty"`
	ReportResult *ReportResult `json:"report_result,omitempty"`

	ObjType string `json:"objtype,omitempty"` // "Job"
}

// NewJob creates a new Job in PENDING state
func NewJob(kind JobKind) *Job {
	return &Job{
		Kind:      kind,
		State:     JobPending,
		CreatedAt: time.Now(),
		ObjType:   "Job",
	}
}
