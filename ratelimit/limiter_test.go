package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/samcorl/vfa-gallery-sub008/actor"
)

func TestLimiterAuthTier(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cs := NewMemCounterStore()
	cs.NowFunc = func() time.Time { return now }
	l := NewLimiter(cs, nil)
	l.NowFunc = cs.NowFunc

	key := actor.IPKey("10.0.0.1")

	for i := 1; i <= 5; i++ {
		res := l.Check(ctx, key, TierAuth)
		assert.True(res.Allowed, "check %d should pass", i)
		assert.Equal(5, res.Limit)
		assert.Equal(5-i, res.Remaining)
	}

	// the 6th check inside the window is denied, retryable within the window
	res := l.Check(ctx, key, TierAuth)
	assert.False(res.Allowed)
	assert.Equal(0, res.Remaining)
	retry := res.RetryAfterSeconds(now)
	assert.Greater(retry, 0)
	assert.LessOrEqual(retry, 60)

	// a different actor is unaffected
	res = l.Check(ctx, actor.UserKey("u123"), TierAuth)
	assert.True(res.Allowed)

	// first check after window expiry is allowed again with a full window
	now = now.Add(61 * time.Second)
	res = l.Check(ctx, key, TierAuth)
	assert.True(res.Allowed)
	assert.Equal(4, res.Remaining)
}

func TestLimiterTiersIndependent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCounterStore()
	l := NewLimiter(cs, nil)
	key := actor.UserKey("u1")

	for i := 0; i < 10; i++ {
		res := l.Check(ctx, key, TierUpload)
		assert.True(res.Allowed)
	}
	res := l.Check(ctx, key, TierUpload)
	assert.False(res.Allowed)

	// exhausting UPLOAD does not touch MESSAGE for the same actor
	res = l.Check(ctx, key, TierMessage)
	assert.True(res.Allowed)
}

type failingCounterStore struct{}

func (failingCounterStore) Bump(ctx context.Context, key string, window time.Duration) (Counter, error) {
	return Counter{}, errors.New("store down")
}

func TestLimiterFailsOpen(t *testing.T) {
	assert := assert.New(t)

	l := NewLimiter(failingCounterStore{}, nil)
	res := l.Check(context.Background(), actor.UserKey("u1"), TierAuth)
	assert.True(res.Allowed)
}

func TestLimiterOpportunisticSweep(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cs := NewMemCounterStore()
	cs.NowFunc = func() time.Time { return now }
	l := NewLimiter(cs, nil)
	l.SweepEvery = 5

	l.Check(ctx, actor.UserKey("stale"), TierAuth)
	now = now.Add(2 * time.Minute)

	// the stale counter is collected as a side effect of later checks
	for i := 0; i < 5; i++ {
		l.Check(ctx, actor.UserKey("fresh"), TierAuth)
	}
	assert.Equal(1, cs.Len())
}
