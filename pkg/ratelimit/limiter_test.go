package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcomments/pkg/config"
)

func TestTokenBucketBurstAndReset(t *testing.T) {
	tb := NewTokenBucket(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "token %d", i+1)
	}
	assert.False(t, tb.Allow(), "bucket should be empty")

	tb.Reset()
	assert.True(t, tb.Allow())
}

func TestTokenBucketWaitHonorsContext(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, tb.Wait(ctx))
}

func TestTokenBucketNormalizesArguments(t *testing.T) {
	tb := NewTokenBucket(0, 0)
	assert.True(t, tb.Allow())
}

type fakeLimiter struct {
	waits int
	err   error
}

func (f *fakeLimiter) Allow() bool { return true }
func (f *fakeLimiter) Reset()      {}
func (f *fakeLimiter) Wait(ctx context.Context) error {
	f.waits++
	return f.err
}

func TestPacerDelayRange(t *testing.T) {
	p := NewPacer(config.RateLimitConfig{RequestsPerMinute: 60, BurstSize: 1}, 3*time.Second, 20*time.Second)

	for i := 0; i < 100; i++ {
		d := p.Delay()
		assert.GreaterOrEqual(t, d, 3*time.Second)
		assert.LessOrEqual(t, d, 20*time.Second)
	}

	fixed := &Pacer{MinDelay: time.Second, MaxDelay: time.Second}
	assert.Equal(t, time.Second, fixed.Delay())
}

func TestPacerSkipsDelayOnFirstPass(t *testing.T) {
	lim := &fakeLimiter{}
	var slept []time.Duration
	p := &Pacer{
		Limiter:  lim,
		MinDelay: 2 * time.Second,
		MaxDelay: 4 * time.Second,
		jitter:   func(n int64) int64 { return n - 1 },
		sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	d, err := p.Wait(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = p.Wait(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, d)

	assert.Equal(t, []time.Duration{4 * time.Second}, slept)
	assert.Equal(t, 2, lim.waits)
}

func TestPacerPropagatesErrors(t *testing.T) {
	boom := errors.New("limiter closed")
	p := &Pacer{Limiter: &fakeLimiter{err: boom}}
	_, err := p.Wait(context.Background(), 1)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = &Pacer{MinDelay: time.Hour, MaxDelay: time.Hour}
	_, err = p.Wait(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
