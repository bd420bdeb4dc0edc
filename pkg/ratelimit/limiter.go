package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"igcomments/pkg/config"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed right now
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait(ctx context.Context) error
	// Reset restores the full burst
	Reset()
}

// TokenBucket is a token bucket limiter backed by golang.org/x/time/rate
type TokenBucket struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	every   time.Duration
	burst   int
}

// NewTokenBucket creates a limiter allowing requestsPerMinute on average
// with bursts of up to burst requests
func NewTokenBucket(requestsPerMinute, burst int) *TokenBucket {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Every(every), burst),
		every:   every,
		burst:   burst,
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	return tb.current().Allow()
}

// Wait blocks until a token is available or ctx is done
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.current().Wait(ctx)
}

// Reset replaces the bucket with a full one
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.limiter = rate.NewLimiter(rate.Every(tb.every), tb.burst)
}

func (tb *TokenBucket) current() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.limiter
}

// Pacer spaces collection passes. Every pass waits on the request limiter;
// every pass after the first also sleeps a uniformly random delay in
// [MinDelay, MaxDelay].
type Pacer struct {
	Limiter  Limiter
	MinDelay time.Duration
	MaxDelay time.Duration

	// jitter returns a value in [0, n); swapped out in tests
	jitter func(n int64) int64
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPacer builds a pacer from the rate limit settings and pass delay range
func NewPacer(rl config.RateLimitConfig, minDelay, maxDelay time.Duration) *Pacer {
	return &Pacer{
		Limiter:  NewTokenBucket(rl.RequestsPerMinute, rl.BurstSize),
		MinDelay: minDelay,
		MaxDelay: maxDelay,
	}
}

// Delay returns the jittered delay used before a non-initial pass
func (p *Pacer) Delay() time.Duration {
	if p.MaxDelay <= p.MinDelay {
		return p.MinDelay
	}
	jitter := p.jitter
	if jitter == nil {
		jitter = rand.Int64N
	}
	return p.MinDelay + time.Duration(jitter(int64(p.MaxDelay-p.MinDelay)+1))
}

// Wait blocks before pass number pass (1-based)
func (p *Pacer) Wait(ctx context.Context, pass int) (time.Duration, error) {
	var delay time.Duration
	if pass > 1 {
		delay = p.Delay()
		sleep := p.sleep
		if sleep == nil {
			sleep = sleepCtx
		}
		if err := sleep(ctx, delay); err != nil {
			return delay, err
		}
	}

	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return delay, err
		}
	}
	return delay, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
