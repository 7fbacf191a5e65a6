// Package schedule re-runs harness jobs on cron expressions. Overlapping
// firings of the same job are skipped so one run owns the browser at a time.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/nikshitha/signup-harness/logger"
	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work
type Job func(ctx context.Context) error

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// Scheduler manages periodic harness runs
type Scheduler struct {
	cron       *cron.Cron
	jobs       map[string]cron.EntryID
	timezone   *time.Location
	runTimeout time.Duration
	logger     *logger.Logger
}

// New creates a scheduler in the given timezone. Each firing gets a context
// that expires after runTimeout.
func New(timezone string, runTimeout time.Duration, log *logger.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	l := log.WithModule("schedule")
	cronLog := cron.PrintfLogger(l)

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		jobs:       make(map[string]cron.EntryID),
		timezone:   loc,
		runTimeout: runTimeout,
		logger:     l,
	}, nil
}

// AddJob adds a job with a cron schedule such as "0 */6 * * *"
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		if err := s.RunNow(name, job); err != nil {
			s.logger.WithField("job", name).WithError(err).Error("Scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": spec,
	}).Info("Job scheduled")

	return nil
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		s.logger.WithField("job", name).Info("Job removed")
	}
}

// RunNow executes job immediately under the run timeout
func (s *Scheduler) RunNow(name string, job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	log := s.logger.WithField("job", name)
	log.Info("Starting job")
	start := time.Now()

	if err := job(ctx); err != nil {
		return err
	}

	log.WithField("duration", time.Since(start).String()).Info("Job completed")
	return nil
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to return, or for
// ctx to end
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("Stopping scheduler")
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	entries := s.cron.Entries()
	infos := make([]JobInfo, 0, len(entries))

	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}

	return infos
}
