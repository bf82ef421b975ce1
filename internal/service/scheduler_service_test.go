package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("08:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 8 * * *", spec)

	for _, bad := range []string{"8", "24:00", "12:60", "aa:bb", ""} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerRunsIntervalJobs(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewSchedulerService(time.UTC, nil)
	var runs atomic.Int32
	_, err := s.ScheduleInterval("tick", time.Second, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("logged, not fatal")
	})
	require.NoError(t, err)
	_, err = s.ScheduleDaily("digest", "23:59", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())

	_, err = s.ScheduleInterval("bad", 0, func(context.Context) error { return nil })
	assert.Error(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestSchedulerLogsPanickingJobs(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	core, logs := observer.New(zap.InfoLevel)
	s := NewSchedulerService(time.UTC, zap.New(core))
	var runs atomic.Int32
	_, err := s.ScheduleInterval("explode", time.Second, func(context.Context) error {
		runs.Add(1)
		panic("boom")
	})
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond,
		"the scheduler keeps running after a job panics")
	s.Stop()

	panics := logs.FilterMessageSnippet("panic")
	require.NotZero(t, panics.Len())
	assert.Contains(t, panics.All()[0].Message, "boom")
	assert.Equal(t, "scheduler", panics.All()[0].LoggerName)
}
