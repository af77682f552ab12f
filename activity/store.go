package activity

import (
	"context"
	"time"
)

// EventStore persists and queries the activity log. The query methods are the
// only read interface the heuristics engine uses.
type EventStore interface {
	Append(ctx context.Context, evt *Event) error
	// CountSince counts events for one actor+action at or after `since`.
	CountSince(ctx context.Context, actorID, action string, since time.Time) (int, error)
	// CountSinceEntity is CountSince additionally narrowed to one entity.
	// Flag dedup keys on (actor, action, entityType, entityID).
	CountSinceEntity(ctx context.Context, actorID, action, entityType, entityID string, since time.Time) (int, error)
	// CountByIPSince counts events from one source address, actor-independent.
	CountByIPSince(ctx context.Context, ipAddress, action string, since time.Time) (int, error)
	// RecentNetworks returns the distinct IP addresses seen for an actor
	// across the given actions, most recent first, capped at limit.
	RecentNetworks(ctx context.Context, actorID string, actions []string, limit int) ([]string, error)
}
