package resilience

import (
	"context"
	"sync"
	"time"

	"jobscout/internal/clock"
)

// Limiter gates outbound model requests
type Limiter interface {
	Acquire(ctx context.Context) error
}

// RateLimiter enforces a requests-per-minute cap over a one-minute window
// plus a minimum spacing of 60s/cap + buffer between granted requests. One
// instance is shared by every session in the process.
type RateLimiter struct {
	mu          sync.Mutex
	clock       clock.Clock
	cap         int
	minInterval time.Duration

	windowStart time.Time
	count       int
	last        time.Time
}

// NewRateLimiter builds a limiter for requestsPerMinute (minimum 1)
func NewRateLimiter(requestsPerMinute int, buffer time.Duration, clk clock.Clock) *RateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &RateLimiter{
		clock:       clk,
		cap:         requestsPerMinute,
		minInterval: time.Minute/time.Duration(requestsPerMinute) + buffer,
	}
}

// MinInterval returns the enforced spacing between requests
func (l *RateLimiter) MinInterval() time.Duration {
	return l.minInterval
}

// Acquire blocks until a request may be sent and records it. The lock is
// held across the sleeps so concurrent callers queue in order.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= time.Minute {
		l.windowStart = now
		l.count = 0
	}

	if l.count >= l.cap {
		if err := l.clock.Sleep(ctx, time.Minute-now.Sub(l.windowStart)); err != nil {
			return err
		}
		now = l.clock.Now()
		l.windowStart = now
		l.count = 0
	}

	if !l.last.IsZero() {
		if elapsed := now.Sub(l.last); elapsed < l.minInterval {
			if err := l.clock.Sleep(ctx, l.minInterval-elapsed); err != nil {
				return err
			}
			now = l.clock.Now()
		}
	}

	l.count++
	l.last = now
	return nil
}

// WindowUsage reports requests granted in the current window
func (l *RateLimiter) WindowUsage() (count, limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.windowStart.IsZero() && l.clock.Now().Sub(l.windowStart) >= time.Minute {
		return 0, l.cap
	}
	return l.count, l.cap
}
