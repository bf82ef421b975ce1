package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"portfolio/internal/api"
	"portfolio/internal/config"
	"portfolio/internal/ratelimit"
	"portfolio/internal/service"
)

func TestScheduleJobs(t *testing.T) {
	logger = zap.NewNop()
	cfg = config.Config{DigestTime: "08:15"}
	deps := api.Deps{
		Limiter:     ratelimit.New(5, time.Minute),
		AuthLimiter: ratelimit.New(5, time.Minute),
	}

	s := service.NewSchedulerService(time.UTC, nil)
	require.NoError(t, scheduleJobs(s, &app{deps: deps}))
	assert.Equal(t, 3, s.Entries())

	s = service.NewSchedulerService(time.UTC, nil)
	require.NoError(t, scheduleJobs(s, &app{deps: deps, telegram: true}))
	assert.Equal(t, 4, s.Entries())

	cfg.DigestTime = "25:00"
	s = service.NewSchedulerService(time.UTC, nil)
	assert.Error(t, scheduleJobs(s, &app{deps: deps, telegram: true}))
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger(config.Config{Env: "production"}, false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = newLogger(config.Config{Env: "production"}, true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = newLogger(config.Config{Env: "development"}, false)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}
