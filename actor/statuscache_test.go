package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemStatusCache(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	c := NewMemStatusCache(10, time.Minute)

	_, ok, err := c.Get(ctx, "u1")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(c.Set(ctx, "u1", StatusActive))
	status, ok, err := c.Get(ctx, "u1")
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(StatusActive, status)

	// other actors don't collide
	_, ok, err = c.Get(ctx, "u2")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(c.Purge(ctx, "u1"))
	_, ok, err = c.Get(ctx, "u1")
	assert.NoError(err)
	assert.False(ok)
}
