package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/samcorl/vfa-gallery-sub008/actor"
)

// how often (in admitted checks) the limiter tries an opportunistic sweep of
// expired counters, instead of running a background timer
const defaultSweepEvery = 1000

// Result is the outcome of a single admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfterSeconds is how long a denied caller should wait, rounded up.
// Surfaced as a retryable condition (HTTP 429 + Retry-After), never fatal.
func (r Result) RetryAfterSeconds(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Seconds())
	if r.ResetAt.Sub(now)%time.Second != 0 {
		secs++
	}
	if secs < 0 {
		secs = 0
	}
	return secs
}

type Limiter struct {
	Store  CounterStore
	Logger *slog.Logger
	// sweep cadence; zero means defaultSweepEvery
	SweepEvery int

	checks atomic.Int64
	// override for tests; defaults to time.Now
	NowFunc func() time.Time
}

func NewLimiter(store CounterStore, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		Store:  store,
		Logger: logger.With("system", "ratelimit"),
	}
}

func (l *Limiter) now() time.Time {
	if l.NowFunc != nil {
		return l.NowFunc()
	}
	return time.Now()
}

// Check performs the fixed-window check-and-increment for one actor and tier.
// Windows are independent per (actor, tier) pair.
//
// A store failure fails open: admission control going down must not take user
// traffic down with it.
func (l *Limiter) Check(ctx context.Context, key actor.Key, tier Tier) Result {
	counterKey := fmt.Sprintf("%s/%s", tier.Name, key)
	c, err := l.Store.Bump(ctx, counterKey, tier.Window)
	if err != nil {
		l.Logger.Warn("counter store failure, allowing request", "err", err, "tier", tier.Name)
		checkErrorCount.WithLabelValues(tier.Name).Inc()
		return Result{Allowed: true, Limit: tier.MaxRequests, Remaining: tier.MaxRequests, ResetAt: l.now().Add(tier.Window)}
	}

	l.maybeSweep(ctx)

	remaining := tier.MaxRequests - c.Count
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:   c.Count <= tier.MaxRequests,
		Limit:     tier.MaxRequests,
		Remaining: remaining,
		ResetAt:   c.ResetAt,
	}
	if res.Allowed {
		checkAllowedCount.WithLabelValues(tier.Name).Inc()
	} else {
		checkDeniedCount.WithLabelValues(tier.Name).Inc()
	}
	return res
}

func (l *Limiter) maybeSweep(ctx context.Context) {
	sweeper, ok := l.Store.(Sweeper)
	if !ok {
		return
	}
	every := l.SweepEvery
	if every <= 0 {
		every = defaultSweepEvery
	}
	if l.checks.Add(1)%int64(every) != 0 {
		return
	}
	if removed := sweeper.Sweep(ctx); removed > 0 {
		l.Logger.Debug("swept expired rate counters", "removed", removed)
		sweepRemovedCount.Add(float64(removed))
	}
}
