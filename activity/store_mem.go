package activity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemEventStore keeps the log in process memory. For tests and local dev.
type MemEventStore struct {
	mu     sync.Mutex
	nextID uint
	events []Event
}

var _ EventStore = (*MemEventStore)(nil)

func NewMemEventStore() *MemEventStore {
	return &MemEventStore{nextID: 1}
}

func (s *MemEventStore) Append(ctx context.Context, evt *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}
	evt.ID = s.nextID
	s.nextID++
	s.events = append(s.events, *evt)
	return nil
}

func (s *MemEventStore) CountSince(ctx context.Context, actorID, action string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.events {
		if e.ActorID != nil && *e.ActorID == actorID && e.Action == action && !e.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemEventStore) CountSinceEntity(ctx context.Context, actorID, action, entityType, entityID string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.events {
		if e.ActorID != nil && *e.ActorID == actorID && e.Action == action &&
			e.EntityType == entityType && e.EntityID == entityID && !e.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemEventStore) CountByIPSince(ctx context.Context, ipAddress, action string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.events {
		if e.IPAddress == ipAddress && e.Action == action && !e.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemEventStore) RecentNetworks(ctx context.Context, actorID string, actions []string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := make(map[string]time.Time)
	for _, e := range s.events {
		if e.ActorID == nil || *e.ActorID != actorID || e.IPAddress == "" {
			continue
		}
		match := false
		for _, a := range actions {
			if e.Action == a {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		if t, ok := latest[e.IPAddress]; !ok || e.CreatedAt.After(t) {
			latest[e.IPAddress] = e.CreatedAt
		}
	}
	addrs := make([]string, 0, len(latest))
	for addr := range latest {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return latest[addrs[i]].After(latest[addrs[j]])
	})
	if len(addrs) > limit {
		addrs = addrs[:limit]
	}
	return addrs, nil
}
