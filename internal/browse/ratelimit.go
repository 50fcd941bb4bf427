package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrDailyLimitReached is returned when the local daily API quota has been
// exhausted.
var ErrDailyLimitReached = errors.New("daily API limit reached")

// RateLimiter guards Browse API calls with a token bucket for per-second
// pacing and a rolling 24-hour window for the daily quota.
type RateLimiter struct {
	limiter  *rate.Limiter
	maxDaily int64

	mu      sync.Mutex
	daily   int64
	resetAt time.Time
	nowFunc func() time.Time
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterNowFunc overrides the time function for testing.
func WithRateLimiterNowFunc(f func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) { r.nowFunc = f }
}

// NewRateLimiter creates a limiter allowing perSecond calls (burst-capped)
// and at most maxDaily calls per rolling 24-hour window.
func NewRateLimiter(perSecond float64, burst int, maxDaily int64, opts ...RateLimiterOption) *RateLimiter {
	r := &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resetAt = r.nowFunc().Add(24 * time.Hour)
	return r
}

// Wait blocks until a call is allowed or ctx is canceled. It returns
// ErrDailyLimitReached once the daily quota is spent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	now := r.nowFunc()
	if now.After(r.resetAt) {
		r.daily = 0
		r.resetAt = now.Add(24 * time.Hour)
	}
	if r.daily >= r.maxDaily {
		used, limit := r.daily, r.maxDaily
		r.mu.Unlock()
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, used, limit)
	}
	r.daily++
	r.mu.Unlock()

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// DailyCount returns how many calls were made in the current window.
func (r *RateLimiter) DailyCount() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.daily
}
