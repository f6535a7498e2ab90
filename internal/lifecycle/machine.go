// Package lifecycle implements the state machine driving scan and report
// jobs through PENDING -> RUNNING -> {COMPLETED, FAILED, CANCELLED}.
// Terminal states are immutable; retries are new jobs created by the
// caller, never implicit.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/postureops/posture-backend/model"
	"github.com/postureops/posture-backend/util"
)

// ErrInvalidTransition is returned when a transition is requested from a
// state that does not permit it
var ErrInvalidTransition = errors.New("invalid job transition")

// ErrAlreadyTerminal is returned when operating on a finished job
var ErrAlreadyTerminal = errors.New("job already in a terminal state")

// ErrInvalidProgress is returned for progress writes outside 0-100 or
// outside the RUNNING state
var ErrInvalidProgress = errors.New("invalid progress update")

// ErrJobNotFound is returned when the referenced job does not exist
var ErrJobNotFound = errors.New("job not found")

// ErrInvalidResult is returned when a completion payload does not match
// the job's kind
var ErrInvalidResult = errors.New("result payload does not match job kind")

// JobStore provides read and write access to persisted jobs
type JobStore interface {
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	SaveJobState(ctx context.Context, job *model.Job) error
}

// ScanCompletionHook is invoked after a scan job completes, to recompute
// the risk rollups of the scanned assets. Report completions have no hook.
type ScanCompletionHook interface {
	RecomputeAssets(ctx context.Context, assetIDs []string) error
}

// Machine serializes all transition requests per job id, so a job cannot
// be concurrently started and cancelled into an inconsistent state.
type Machine struct {
	store  JobStore
	onScan ScanCompletionHook
	locks  *util.KeyedMutex
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewMachine creates a Machine backed by the given store. onScan may be
// nil when no dependent recompute is wired (tests, report-only deployments).
func NewMachine(store JobStore, onScan ScanCompletionHook, logger *zap.Logger) *Machine {
	return &Machine{
		store:  store,
		onScan: onScan,
		locks:  util.NewKeyedMutex(),
		logger: logger.Sugar(),
		now:    time.Now,
	}
}

// WithClock replaces the machine's clock, for deterministic tests
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Start transitions a job from PENDING to RUNNING and records startedAt
func (m *Machine) Start(ctx context.Context, jobID string) (*model.Job, error) {
	return m.transition(ctx, jobID, func(job *model.Job) error {
		if job.State != model.JobPending {
			return fmt.Errorf("%w: cannot start job in state %s", ErrInvalidTransition, job.State)
		}
		started := m.now()
		job.State = model.JobRunning
		job.StartedAt = &started
		return nil
	})
}

// Complete transitions a job from RUNNING to COMPLETED, attaches the
// result payload, and triggers the dependent recompute for scans
func (m *Machine) Complete(ctx context.Context, jobID string, scan *model.ScanResult, report *model.ReportResult) (*model.Job, error) {
	job, err := m.transition(ctx, jobID, func(job *model.Job) error {
		if job.State != model.JobRunning {
			return fmt.Errorf("%w: cannot complete job in state %s", ErrInvalidTransition, job.State)
		}
		// A scan must carry a scan result and a report a report result;
		// a mismatched payload would silently skip the dependent recompute.
		switch job.Kind {
		case model.JobKindScan:
			if scan == nil || report != nil {
				return fmt.Errorf("%w: scan job %s requires a scan result", ErrInvalidResult, jobID)
			}
		case model.JobKindReport:
			if report == nil || scan != nil {
				return fmt.Errorf("%w: report job %s requires a report result", ErrInvalidResult, jobID)
			}
		}
		completed := m.now()
		job.State = model.JobCompleted
		job.CompletedAt = &completed
		job.Progress = 100
		job.ScanResult = scan
		job.ReportResult = report
		return nil
	})
	if err != nil {
		return nil, err
	}

	if job.Kind == model.JobKindScan && scan != nil && m.onScan != nil {
		if err := m.onScan.RecomputeAssets(ctx, scan.AssetIDs); err != nil {
			// The job itself completed; the rollup will catch up on the
			// next link write or scan.
			m.logger.Errorf("Post-scan recompute failed for job %s: %v", jobID, err)
		}
	}
	return job, nil
}

// Fail transitions a job from RUNNING or PENDING to FAILED and records the
// error message. PENDING failures cover jobs rejected before starting,
// e.g. configuration validation.
func (m *Machine) Fail(ctx context.Context, jobID string, errMsg string) (*model.Job, error) {
	return m.transition(ctx, jobID, func(job *model.Job) error {
		if job.State != model.JobRunning && job.State != model.JobPending {
			return fmt.Errorf("%w: cannot fail job in state %s", ErrInvalidTransition, job.State)
		}
		completed := m.now()
		job.State = model.JobFailed
		job.CompletedAt = &completed
		job.Error = errMsg
		return nil
	})
}

// Cancel transitions a PENDING job to CANCELLED, or flags a RUNNING job
// for cooperative cancellation and marks it CANCELLED. The external
// executor observes CancelRequested and stops on its own; Cancel never
// waits for an acknowledgement.
func (m *Machine) Cancel(ctx context.Context, jobID string) (*model.Job, error) {
	return m.transition(ctx, jobID, func(job *model.Job) error {
		if job.State.IsTerminal() {
			return fmt.Errorf("%w: cannot cancel job in state %s", ErrAlreadyTerminal, job.State)
		}
		completed := m.now()
		job.State = model.JobCancelled
		job.CompletedAt = &completed
		job.CancelRequested = true
		return nil
	})
}

// SetProgress updates a RUNNING job's 0-100 progress indicator
func (m *Machine) SetProgress(ctx context.Context, jobID string, progress int) (*model.Job, error) {
	return m.transition(ctx, jobID, func(job *model.Job) error {
		if job.State != model.JobRunning {
			return fmt.Errorf("%w: job in state %s", ErrInvalidProgress, job.State)
		}
		if progress < 0 || progress > 100 {
			return fmt.Errorf("%w: %d", ErrInvalidProgress, progress)
		}
		job.Progress = progress
		return nil
	})
}

// transition loads the job, applies the mutation under the per-job lock,
// and persists the result. A failed save leaves the stored job untouched.
func (m *Machine) transition(ctx context.Context, jobID string, mutate func(*model.Job) error) (*model.Job, error) {
	m.locks.Lock(jobID)
	defer m.locks.Unlock(jobID)

	job, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	before := job.State
	if err := mutate(job); err != nil {
		return nil, err
	}

	if err := m.store.SaveJobState(ctx, job); err != nil {
		return nil, err
	}

	if before != job.State {
		m.logger.Infof("Job %s (%s): %s -> %s", jobID, job.Kind, before, job.State)
	}
	return job, nil
}
