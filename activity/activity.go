// Package activity is the append-only event log which the rest of the
// trust-and-safety core is built on: every notable action gets recorded here,
// and the abuse heuristics read back over it.
package activity

import (
	"time"
)

// Well-known action tags. Other code may record arbitrary tags; these are the
// ones the heuristics and throttles query for.
const (
	ActionArtworkCreated    = "artwork_created"
	ActionGalleryCreated    = "gallery_created"
	ActionCollectionCreated = "collection_created"
	ActionUserLogin         = "user_login"
	ActionUserSignup        = "user_signup"
	ActionUserLoginFailed   = "user_login_failed"
	ActionSuspiciousFlagged = "suspicious_activity_flagged"
	ActionSuspiciousCleared = "suspicious_flags_cleared"
	ActionMessageSent       = "message_sent"
	ActionMessageApproved   = "message_approved"
	ActionMessageRejected   = "message_rejected"
	ActionMessageFlagged    = "message_flagged"
)

// Event is a single audit log row. Immutable once written; rows are never
// updated or deleted outside of retention sweeps.
type Event struct {
	ID uint `gorm:"primarykey"`
	// nil for unauthenticated actions
	ActorID    *string `gorm:"index:idx_activity_actor_action,priority:1"`
	Action     string  `gorm:"index:idx_activity_actor_action,priority:2;index:idx_activity_ip_action,priority:2"`
	EntityType string
	EntityID   string
	Metadata   map[string]any `gorm:"serializer:json"`
	IPAddress  string         `gorm:"index:idx_activity_ip_action,priority:1"`
	UserAgent  string
	CreatedAt  time.Time `gorm:"index"`
}

func (Event) TableName() string {
	return "activity_events"
}
