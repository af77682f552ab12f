package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/samcorl/vfa-gallery-sub008/activity"
)

// NewAccountThrottle caps how much first-week accounts can publish per UTC
// calendar day. Layered on top of the tier limiter, not inside it: the window
// boundary is midnight UTC rather than a rolling window, to match the
// "resets at midnight" promise shown to new users.
type NewAccountThrottle struct {
	Activity *activity.Recorder
	// accounts older than this always pass without a log query
	AccountAge time.Duration
	// qualifying actions allowed per UTC day
	MaxDaily int
	Action   string
	// override for tests; defaults to time.Now
	NowFunc func() time.Time
}

type ThrottleResult struct {
	Limited           bool
	Reason            string
	RetryAfterSeconds int
}

func NewNewAccountThrottle(rec *activity.Recorder) *NewAccountThrottle {
	return &NewAccountThrottle{
		Activity:   rec,
		AccountAge: 7 * 24 * time.Hour,
		MaxDaily:   10,
		Action:     activity.ActionArtworkCreated,
	}
}

func (t *NewAccountThrottle) now() time.Time {
	if t.NowFunc != nil {
		return t.NowFunc()
	}
	return time.Now()
}

// Check reports whether the actor's next qualifying action should be blocked.
// The count covers actions already performed today, so call it before
// recording the new action.
func (t *NewAccountThrottle) Check(ctx context.Context, actorID string, accountCreatedAt time.Time) (ThrottleResult, error) {
	now := t.now().UTC()
	if now.Sub(accountCreatedAt) >= t.AccountAge {
		return ThrottleResult{}, nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := t.Activity.CountSince(ctx, actorID, t.Action, midnight)
	if err != nil {
		return ThrottleResult{}, fmt.Errorf("querying daily action count: %w", err)
	}
	if count < t.MaxDaily {
		return ThrottleResult{}, nil
	}

	throttleLimitedCount.Inc()
	// rounded up, so a client waiting exactly this long lands past midnight
	wait := midnight.Add(24 * time.Hour).Sub(now)
	secs := int(wait.Seconds())
	if wait%time.Second != 0 {
		secs++
	}
	return ThrottleResult{
		Limited: true,
		Reason: fmt.Sprintf("new accounts are limited to %d uploads per day (%d/%d used); limit resets at midnight UTC",
			t.MaxDaily, count, t.MaxDaily),
		RetryAfterSeconds: secs,
	}, nil
}
