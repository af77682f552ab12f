package ratelimit

import (
	"context"
	"time"
)

// Counter is the state of one fixed window.
type Counter struct {
	Count   int
	ResetAt time.Time
}

// CounterStore is the storage behind the limiter. Bump is the single
// check-and-increment operation: when the window for `key` has elapsed the
// counter resets to 1 with a fresh ResetAt, otherwise it increments. No other
// component reads or writes these counters.
//
// The mem implementation is process-local, which makes the limiter
// best-effort across multiple instances; the redis implementation shares
// counters between instances with the same window algorithm.
type CounterStore interface {
	Bump(ctx context.Context, key string, window time.Duration) (Counter, error)
}

// Sweeper is optionally implemented by stores which accumulate expired
// windows in memory. The limiter calls it opportunistically; stores with
// server-side expiry (redis) don't need it.
type Sweeper interface {
	Sweep(ctx context.Context) int
}
