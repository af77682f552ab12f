package actor

import (
	"context"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// RedisStatusCache shares status entries between instances, with a small
// TinyLFU layer in front so repeat lookups on one instance skip the network.
// A purge after a transition reaches redis immediately; other instances
// converge when their local copies hit the TTL.
type RedisStatusCache struct {
	Data *cache.Cache
	TTL  time.Duration
}

var _ StatusCache = (*RedisStatusCache)(nil)

func NewRedisStatusCache(redisURL string, ttl time.Duration) (*RedisStatusCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &RedisStatusCache{
		Data: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(10_000, ttl),
		}),
		TTL: ttl,
	}, nil
}

func statusKey(actorID string) string {
	return "trust-status/" + actorID
}

func (c *RedisStatusCache) Get(ctx context.Context, actorID string) (TrustStatus, bool, error) {
	var status TrustStatus
	err := c.Data.Get(ctx, statusKey(actorID), &status)
	if err == cache.ErrCacheMiss {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

func (c *RedisStatusCache) Set(ctx context.Context, actorID string, status TrustStatus) error {
	return c.Data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   statusKey(actorID),
		Value: status,
		TTL:   c.TTL,
	})
}

func (c *RedisStatusCache) Purge(ctx context.Context, actorID string) error {
	err := c.Data.Delete(ctx, statusKey(actorID))
	if err == cache.ErrCacheMiss {
		return nil
	}
	return err
}
