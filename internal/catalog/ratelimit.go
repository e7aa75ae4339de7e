package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// ErrRunBudgetExhausted is returned when the per-run request budget is spent.
var ErrRunBudgetExhausted = errors.New("per-run request budget exhausted")

// RateLimiter controls outbound request rate and a per-run request budget.
// A token bucket paces requests per second; the budget bounds the total
// number of storefront calls a single run may issue.
type RateLimiter struct {
	limiter *rate.Limiter
	used    atomic.Int64
	budget  int64
}

// NewRateLimiter creates a rate limiter with the given per-second rate,
// burst size, and per-run request budget. budget <= 0 disables the budget.
func NewRateLimiter(perSecond float64, burst int, budget int64) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		budget:  budget,
	}
}

// Wait blocks until the limiter allows the next call or the context is
// canceled. Returns ErrRunBudgetExhausted once the budget is spent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r.budget > 0 && r.used.Load() >= r.budget {
		return fmt.Errorf("%w (%d/%d)", ErrRunBudgetExhausted, r.used.Load(), r.budget)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	r.used.Add(1)
	return nil
}

// Used returns the number of requests issued since the last reset.
func (r *RateLimiter) Used() int64 {
	return r.used.Load()
}

// Remaining returns the requests left in the budget, or -1 when unbounded.
func (r *RateLimiter) Remaining() int64 {
	if r.budget <= 0 {
		return -1
	}
	left := r.budget - r.used.Load()
	if left < 0 {
		return 0
	}
	return left
}

// Reset clears the per-run counter. Called at the start of each run.
func (r *RateLimiter) Reset() {
	r.used.Store(0)
}
