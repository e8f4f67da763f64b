package assist

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/sakif/snippetshare/internal/apperror"
)

// Budget caps how many AI calls the process may make per window. The check
// happens BEFORE any network call — an exhausted budget costs nothing.
//
// This is an explicit injected component rather than package-level counters:
// callers receive a *Budget, tests swap the clock, and nothing couples
// requests through hidden global state. The bucket holds `calls` tokens and
// refills them evenly across `window`, which approximates a sliding window
// without tracking individual call timestamps.
type Budget struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// DefaultBudget allows 15 calls per 60-second window, matching the hosted
// AI endpoint's free-tier allowance.
func DefaultBudget() *Budget {
	return NewBudget(15, time.Minute)
}

// NewBudget creates a Budget allowing `calls` calls per `window`.
func NewBudget(calls int, window time.Duration) *Budget {
	if calls <= 0 {
		calls = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Budget{
		limiter: rate.NewLimiter(rate.Limit(float64(calls)/window.Seconds()), calls),
		now:     time.Now,
	}
}

// newBudgetWithClock injects a fake clock. Test use only.
func newBudgetWithClock(calls int, window time.Duration, now func() time.Time) *Budget {
	b := NewBudget(calls, window)
	b.now = now
	return b
}

// Spend consumes one call from the budget, or fails with RateLimited.
// Never blocks — the caller surfaces the error with a retry hint instead of
// queueing the request.
func (b *Budget) Spend() error {
	if !b.limiter.AllowN(b.now(), 1) {
		return apperror.RateLimited("AI request limit reached — wait a moment before trying again")
	}
	return nil
}
