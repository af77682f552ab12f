package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisCounterPrefix = "ratelimit/"

// RedisCounterStore shares fixed-window counters between process instances.
// Window expiry is handled server-side, so no sweeping is needed.
type RedisCounterStore struct {
	Client *redis.Client
}

var _ CounterStore = (*RedisCounterStore)(nil)

func NewRedisCounterStore(redisURL string) (*RedisCounterStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisCounterStore{Client: rdb}, nil
}

func (s *RedisCounterStore) Bump(ctx context.Context, key string, window time.Duration) (Counter, error) {
	rkey := redisCounterPrefix + key

	// single round-trip: increment, arm expiry on first hit, read remaining TTL
	multi := s.Client.Pipeline()
	incr := multi.Incr(ctx, rkey)
	multi.ExpireNX(ctx, rkey, window)
	pttl := multi.PTTL(ctx, rkey)
	if _, err := multi.Exec(ctx); err != nil {
		return Counter{}, err
	}

	remaining := pttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return Counter{
		Count:   int(incr.Val()),
		ResetAt: time.Now().Add(remaining),
	}, nil
}
