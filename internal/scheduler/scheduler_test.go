package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"marketplace-app/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

func TestRegisterRejectsBadSchedule(t *testing.T) {
	s := New(logging.Discard(), 0)
	err := s.Register("every now and then", &countingJob{})
	assert.Error(t, err)
}

func TestRunSurvivesJobErrors(t *testing.T) {
	s := New(logging.Discard(), time.Second)
	job := &countingJob{err: errors.New("boom")}

	s.run(job)
	s.run(job)
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestJobsRunOnScheduleAndStop(t *testing.T) {
	s := New(logging.Discard(), 0)
	job := &countingJob{}
	require.NoError(t, s.Register("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestStopCancelsBlockedJob(t *testing.T) {
	s := New(logging.Discard(), 0)
	job := &countingJob{block: make(chan struct{})}

	done := make(chan struct{})
	go func() {
		s.run(job)
		close(done)
	}()
	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not observe cancellation")
	}
}
