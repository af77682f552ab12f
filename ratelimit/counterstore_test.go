package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCounterStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cs := NewMemCounterStore()
	cs.NowFunc = func() time.Time { return now }

	c, err := cs.Bump(ctx, "auth/ip:1.2.3.4", time.Minute)
	assert.NoError(err)
	assert.Equal(1, c.Count)
	assert.Equal(now.Add(time.Minute), c.ResetAt)

	c, err = cs.Bump(ctx, "auth/ip:1.2.3.4", time.Minute)
	assert.NoError(err)
	assert.Equal(2, c.Count)

	// independent key, independent window
	c, err = cs.Bump(ctx, "upload/ip:1.2.3.4", time.Hour)
	assert.NoError(err)
	assert.Equal(1, c.Count)

	// window expiry resets to exactly 1 with a fresh deadline
	now = now.Add(61 * time.Second)
	c, err = cs.Bump(ctx, "auth/ip:1.2.3.4", time.Minute)
	assert.NoError(err)
	assert.Equal(1, c.Count)
	assert.Equal(now.Add(time.Minute), c.ResetAt)
}

func TestMemCounterStoreSweep(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cs := NewMemCounterStore()
	cs.NowFunc = func() time.Time { return now }

	_, err := cs.Bump(ctx, "auth/ip:1.2.3.4", time.Minute)
	assert.NoError(err)
	_, err = cs.Bump(ctx, "upload/ip:1.2.3.4", time.Hour)
	assert.NoError(err)
	assert.Equal(2, cs.Len())

	// nothing expired yet
	assert.Equal(0, cs.Sweep(ctx))

	now = now.Add(2 * time.Minute)
	assert.Equal(1, cs.Sweep(ctx))
	assert.Equal(1, cs.Len())

	now = now.Add(2 * time.Hour)
	assert.Equal(1, cs.Sweep(ctx))
	assert.Equal(0, cs.Len())
}
