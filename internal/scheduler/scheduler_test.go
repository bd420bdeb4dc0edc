package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcomments/pkg/logger"
)

func TestNewRejectsBadSchedule(t *testing.T) {
	noop := func(context.Context) error { return nil }

	_, err := New("not a schedule", time.UTC, noop, logger.NewNopLogger())
	assert.ErrorContains(t, err, "invalid schedule")

	_, err = New("@hourly", time.UTC, nil, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestNext(t *testing.T) {
	s, err := New("30 9 * * *", time.UTC, func(context.Context) error { return nil }, logger.NewNopLogger())
	require.NoError(t, err)

	from := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC), s.Next(from))
}

func TestTriggerLogsOutcome(t *testing.T) {
	log := logger.NewTestLogger()
	fail := true
	s, err := New("@hourly", time.UTC, func(context.Context) error {
		if fail {
			return errors.New("boom")
		}
		return nil
	}, log)
	require.NoError(t, err)

	assert.True(t, s.Trigger(context.Background()))
	fail = false
	assert.True(t, s.Trigger(context.Background()))

	assert.Equal(t, int64(2), s.Runs())
	assert.True(t, log.HasMessage("Scheduled collection failed"))
	assert.True(t, log.HasMessage("Scheduled collection finished"))
}

func TestTriggerSkipsWhileRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	log := logger.NewTestLogger()

	s, err := New("@hourly", time.UTC, func(context.Context) error {
		close(started)
		<-release
		return nil
	}, log)
	require.NoError(t, err)

	done := make(chan bool)
	go func() { done <- s.Trigger(context.Background()) }()
	<-started

	assert.False(t, s.Trigger(context.Background()))
	close(release)
	assert.True(t, <-done)

	assert.Equal(t, int64(1), s.Runs())
	assert.Equal(t, int64(1), s.Skipped())
	assert.True(t, log.HasMessage("Previous collection still running, skipping tick"))
}

func TestRunImmediatelyThenStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := logger.NewTestLogger()

	s, err := New("@hourly", time.UTC, func(context.Context) error {
		cancel()
		return nil
	}, log)
	require.NoError(t, err)

	require.NoError(t, s.Run(ctx, true))
	assert.Equal(t, int64(1), s.Runs())
	assert.True(t, log.HasMessage("Component started"))
	assert.True(t, log.HasMessage("Component stopped"))
}

func TestRunFiresOnSchedule(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var calls atomic.Int32
	s, err := New("@every 1s", time.UTC, func(context.Context) error {
		if calls.Add(1) >= 2 {
			cancel()
		}
		return nil
	}, logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, s.Run(ctx, false))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.NotErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}
