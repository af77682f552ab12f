package ratelimit

import (
	"context"
	"sync"
	"time"
)

type MemCounterStore struct {
	mu       sync.Mutex
	counters map[string]*Counter
	// override for tests; defaults to time.Now
	NowFunc func() time.Time
}

var _ CounterStore = (*MemCounterStore)(nil)
var _ Sweeper = (*MemCounterStore)(nil)

func NewMemCounterStore() *MemCounterStore {
	return &MemCounterStore{
		counters: make(map[string]*Counter),
	}
}

func (s *MemCounterStore) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now()
}

func (s *MemCounterStore) Bump(ctx context.Context, key string, window time.Duration) (Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	c, ok := s.counters[key]
	if !ok || now.After(c.ResetAt) {
		c = &Counter{Count: 1, ResetAt: now.Add(window)}
		s.counters[key] = c
		return *c, nil
	}
	c.Count++
	return *c, nil
}

// Sweep drops expired counters and returns how many were removed.
func (s *MemCounterStore) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, c := range s.counters {
		if now.After(c.ResetAt) {
			delete(s.counters, key)
			removed++
		}
	}
	return removed
}

func (s *MemCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
