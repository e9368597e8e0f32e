// Package scheduler runs the periodic jobs in-process on cron schedules.
// A single running instance is assumed; overlapping runs of the same job are
// skipped rather than queued.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"marketplace-app/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	log     *logrus.Entry
	timeout time.Duration
}

// New builds a scheduler whose job runs are bounded by timeout (zero means
// unbounded).
func New(log *logrus.Entry, timeout time.Duration) *Scheduler {
	logger := cron.PrintfLogger(log)
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		), cron.WithLogger(logger)),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		timeout: timeout,
	}
}

func (s *Scheduler) Register(spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(job) }); err != nil {
		return fmt.Errorf("schedule %s %q: %w", job.Name(), spec, err)
	}
	s.log.WithFields(logrus.Fields{"job": job.Name(), "schedule": spec}).Info("job scheduled")
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.log.WithField("job", job.Name())
	started := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(started)
	metrics.ObserveJob(job.Name(), elapsed)

	if err != nil {
		log.WithError(err).WithField("elapsed", elapsed).Error("job failed")
		return
	}
	log.WithField("elapsed", elapsed).Debug("job finished")
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels in-flight runs and waits for them to return, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with jobs still running")
	}
}
