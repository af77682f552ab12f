package actor

import (
	"context"
	"time"
)

// CachedDirectory layers a StatusCache over an inner Directory for status
// reads. Transitions write through and purge, so a status change is visible
// to the next read on this instance immediately.
type CachedDirectory struct {
	Inner Directory
	Cache StatusCache
}

var _ Directory = (*CachedDirectory)(nil)

func NewCachedDirectory(inner Directory, capacity int, ttl time.Duration) *CachedDirectory {
	return NewCachedDirectoryWithCache(inner, NewMemStatusCache(capacity, ttl))
}

// NewCachedDirectoryWithCache is NewCachedDirectory with a caller-supplied
// cache, for deployments sharing status entries through redis.
func NewCachedDirectoryWithCache(inner Directory, cache StatusCache) *CachedDirectory {
	return &CachedDirectory{
		Inner: inner,
		Cache: cache,
	}
}

func (d *CachedDirectory) GetStatus(ctx context.Context, actorID string) (TrustStatus, error) {
	if status, ok, err := d.Cache.Get(ctx, actorID); err == nil && ok {
		return status, nil
	}
	status, err := d.Inner.GetStatus(ctx, actorID)
	if err != nil {
		return "", err
	}
	_ = d.Cache.Set(ctx, actorID, status)
	return status, nil
}

func (d *CachedDirectory) CreatedAt(ctx context.Context, actorID string) (time.Time, error) {
	// account age is immutable, but cheap enough to not bother caching
	return d.Inner.CreatedAt(ctx, actorID)
}

func (d *CachedDirectory) Transition(ctx context.Context, actorID string, from []TrustStatus, to TrustStatus) (bool, error) {
	ok, err := d.Inner.Transition(ctx, actorID, from, to)
	if err != nil {
		return false, err
	}
	if ok {
		_ = d.Cache.Purge(ctx, actorID)
	}
	return ok, nil
}
