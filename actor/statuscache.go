package actor

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// StatusCache keeps hot trust-status lookups off the database on the request
// path. A miss is reported distinctly from a hit, so callers never confuse
// "not cached yet" with a cached value.
type StatusCache interface {
	Get(ctx context.Context, actorID string) (TrustStatus, bool, error)
	Set(ctx context.Context, actorID string, status TrustStatus) error
	Purge(ctx context.Context, actorID string) error
}

// MemStatusCache is the process-local implementation, for single-instance
// deployments and tests. Entries age out on the TTL; a purge after a status
// transition removes them immediately.
type MemStatusCache struct {
	Data *expirable.LRU[string, TrustStatus]
}

var _ StatusCache = MemStatusCache{}

func NewMemStatusCache(capacity int, ttl time.Duration) MemStatusCache {
	return MemStatusCache{
		Data: expirable.NewLRU[string, TrustStatus](capacity, nil, ttl),
	}
}

func (c MemStatusCache) Get(ctx context.Context, actorID string) (TrustStatus, bool, error) {
	status, ok := c.Data.Get(actorID)
	return status, ok, nil
}

func (c MemStatusCache) Set(ctx context.Context, actorID string, status TrustStatus) error {
	c.Data.Add(actorID, status)
	return nil
}

func (c MemStatusCache) Purge(ctx context.Context, actorID string) error {
	c.Data.Remove(actorID)
	return nil
}
