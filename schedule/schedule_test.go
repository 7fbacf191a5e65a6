package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nikshitha/signup-harness/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestScheduler(t *testing.T, timeout time.Duration) *Scheduler {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)

	s, err := New("UTC", timeout, log)
	require.NoError(t, err)
	return s
}

func noop(context.Context) error { return nil }

func TestNewRejectsUnknownTimezone(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)

	_, err = New("Mars/Olympus_Mons", time.Minute, log)
	assert.Error(t, err)
}

func TestAddJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestScheduler(t, time.Minute)

	require.NoError(t, s.AddJob("harness", "0 */6 * * *", noop))
	assert.Error(t, s.AddJob("harness", "0 * * * *", noop), "duplicate names are rejected")
	assert.Error(t, s.AddJob("broken", "every tuesday", noop))

	s.Start()
	defer s.Stop(context.Background())

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "harness", jobs[0].Name)
	assert.True(t, jobs[0].NextRun.After(time.Now()))
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler(t, time.Minute)
	require.NoError(t, s.AddJob("harness", "@hourly", noop))

	s.RemoveJob("harness")
	assert.Empty(t, s.ListJobs())
	require.NoError(t, s.AddJob("harness", "@hourly", noop))
}

func TestRunNowAppliesTimeout(t *testing.T) {
	s := newTestScheduler(t, 20*time.Millisecond)

	err := s.RunNow("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunNowPropagatesError(t *testing.T) {
	s := newTestScheduler(t, time.Minute)
	boom := errors.New("browser setup failed")

	assert.ErrorIs(t, s.RunNow("harness", func(context.Context) error { return boom }), boom)
}

func TestScheduledJobFires(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestScheduler(t, time.Minute)

	fired := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", "@every 1s", func(context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}))

	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}
