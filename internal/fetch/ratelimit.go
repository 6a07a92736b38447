package fetch

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between calls per provider key.
// Free data API tiers are strict about request spacing, so every client
// waits here before touching the network.
type RateLimiter struct {
	mu       sync.Mutex
	interval map[string]time.Duration
	lastCall map[string]time.Time
}

// NewRateLimiter creates a limiter with the given per-key minimum intervals.
func NewRateLimiter(intervals map[string]time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: intervals,
		lastCall: make(map[string]time.Time),
	}
}

// Wait blocks until the key's minimum interval has elapsed since its last
// call, or the context is cancelled. The reservation is taken up front so
// concurrent callers space out rather than stampede.
func (r *RateLimiter) Wait(ctx context.Context, key string) error {
	r.mu.Lock()
	min := r.interval[key]
	now := time.Now()
	next := r.lastCall[key].Add(min)
	if next.Before(now) {
		next = now
	}
	r.lastCall[key] = next
	r.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
