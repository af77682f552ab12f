// Package moderation owns the message review queue: creation-time routing on
// tone score, and the human approve/reject state machine.
package moderation

import (
	"time"
)

type Status string

const (
	StatusSent          Status = "sent"
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

// Terminal statuses accept no further transitions, including FlagMessage.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Message struct {
	ID          uint `gorm:"primarykey"`
	SenderID    string
	RecipientID string
	Body        string
	Status      Status `gorm:"index"`
	// supplied by an external tone-scoring collaborator; never computed here
	ToneScore     *float64
	FlaggedReason *string
	ReviewedBy    *string
	ReviewedAt    *time.Time
	CreatedAt     time.Time `gorm:"index"`
}
