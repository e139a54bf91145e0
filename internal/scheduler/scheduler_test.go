package scheduler

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanbridge/internal/logging"
)

func newTestScheduler() *Scheduler {
	logger, _ := logging.New(logging.Config{Level: logging.LevelError, Output: "stderr"})
	return NewScheduler(logger)
}

func TestAddJobValidatesExpression(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob("sweep", "not a cron", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron expression")

	require.NoError(t, s.AddJob("sweep", "@every 1h", func(context.Context) error { return nil }))
	assert.Error(t, s.AddJob("sweep", "@every 1h", func(context.Context) error { return nil }))

	jobs := s.GetJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "sweep", jobs[0].Name)
	assert.False(t, jobs[0].NextRun.IsZero())
}

func TestRunNowRecordsOutcome(t *testing.T) {
	s := newTestScheduler()
	var calls atomic.Int32
	boom := stderrors.New("boom")

	require.NoError(t, s.AddJob("ok", "0 * * * *", func(context.Context) error {
		calls.Add(1)
		return nil
	}))
	require.NoError(t, s.AddJob("fail", "0 * * * *", func(context.Context) error { return boom }))

	require.NoError(t, s.RunNow("ok"))
	assert.ErrorIs(t, s.RunNow("fail"), boom)
	assert.Error(t, s.RunNow("missing"))

	jobs := s.GetJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "fail", jobs[0].Name)
	assert.ErrorIs(t, jobs[0].LastErr, boom)
	assert.Equal(t, 1, jobs[1].Runs)
	assert.False(t, jobs[1].LastRun.IsZero())
	assert.Equal(t, int32(1), calls.Load())
}

func TestOverlappingRunIsSkipped(t *testing.T) {
	s := newTestScheduler()
	var calls atomic.Int32

	require.NoError(t, s.AddJob("slow", "@every 1h", func(context.Context) error {
		calls.Add(1)
		// A nested run while this one is in progress must be skipped.
		return s.RunNow("slow")
	}))

	require.NoError(t, s.RunNow("slow"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob("sweep", "@every 1h", func(context.Context) error { return nil }))

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	assert.Len(t, s.GetJobs(), 1)

	s.Stop()
	s.Stop()
}
