package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/postureops/posture-backend/model"
)

// ScheduleStore provides the schedule and job persistence the scheduler needs
type ScheduleStore interface {
	ListEnabledSchedules(ctx context.Context) ([]model.ScheduledJob, error)
	SaveSchedule(ctx context.Context, schedule *model.ScheduledJob) error
	CreateJob(ctx context.Context, job *model.Job) (string, error)
}

// Scheduler fires recurring scan and report jobs. A periodic tick compares
// each enabled schedule's nextRun against the supplied time; due schedules
// get a new PENDING job and a recomputed nextRun. Missed ticks are not
// backfilled: after downtime only the single next occurrence is scheduled.
type Scheduler struct {
	store  ScheduleStore
	logger *zap.SugaredLogger
}

// New creates a Scheduler backed by the given store
func New(store ScheduleStore, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:  store,
		logger: logger.Sugar(),
	}
}

// Tick performs all due-schedule work for the given instant. The caller
// supplies now; disabled schedules are never read or mutated.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	schedules, err := s.store.ListEnabledSchedules(ctx)
	if err != nil {
		return err
	}

	for i := range schedules {
		sched := &schedules[i]
		if !sched.Spec.Frequency.IsValid() {
			// A corrupt frequency would make ComputeNextRun return the zero
			// time, leaving the schedule permanently due and minting a job
			// per tick.
			s.logger.Warnf("Skipping schedule %s with unknown frequency %q", sched.Key, sched.Spec.Frequency)
			continue
		}
		if sched.NextRun.After(now) {
			continue
		}
		if err := s.fire(ctx, sched, now); err != nil {
			s.logger.Errorf("Failed to fire schedule %s: %v", sched.Key, err)
		}
	}
	return nil
}

// fire creates the PENDING job and advances the schedule. nextRun is
// recomputed from now, not from the stale nextRun, so downtime yields a
// single catch-up occurrence instead of a backlog.
func (s *Scheduler) fire(ctx context.Context, sched *model.ScheduledJob, now time.Time) error {
	job := model.NewJob(sched.Kind)
	job.ScheduleID = sched.Key

	jobID, err := s.store.CreateJob(ctx, job)
	if err != nil {
		return err
	}

	fired := now
	sched.LastRun = &fired
	sched.NextRun = ComputeNextRun(sched.Spec, now)
	sched.UpdatedAt = now
	if err := s.store.SaveSchedule(ctx, sched); err != nil {
		return err
	}

	s.logger.Infof("Schedule %s fired job %s (%s), next run %s",
		sched.Key, jobID, sched.Kind, sched.NextRun.Format(time.RFC3339))
	return nil
}

// Run drives Tick from a ticker until the context is cancelled
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Infof("Scheduler started with tick interval %s", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case now := <-ticker.C:
			if err := s.Tick(ctx, now); err != nil {
				s.logger.Errorf("Scheduler tick failed: %v", err)
			}
		}
	}
}
