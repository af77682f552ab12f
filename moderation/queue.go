package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/samcorl/vfa-gallery-sub008/activity"
)

// message does not exist, or is not in a reviewable status. Deliberately one
// error for both: applying approve twice fails the second time instead of
// silently succeeding.
var ErrNotFound = errors.New("message not found or not reviewable")

const DefaultToneThreshold = 0.7

// entity id on audit events, so the log can name the message acted on
func entityID(messageID uint) string {
	return strconv.FormatUint(uint64(messageID), 10)
}

// Queue is the message moderation state machine and review surface.
type Queue struct {
	DB       *gorm.DB
	Activity *activity.Recorder
	Logger   *slog.Logger
	// scores strictly above this route to pending_review
	ToneThreshold float64
}

func NewQueue(db *gorm.DB, rec *activity.Recorder, logger *slog.Logger) (*Queue, error) {
	if err := db.AutoMigrate(&Message{}); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		DB:            db,
		Activity:      rec,
		Logger:        logger.With("system", "moderation"),
		ToneThreshold: DefaultToneThreshold,
	}, nil
}

// Create persists a new message, deciding its initial status: a tone score
// over the threshold or a pre-set flag reason routes it to pending_review,
// anything else goes straight out as sent.
func (q *Queue) Create(ctx context.Context, msg *Message) error {
	msg.Status = StatusSent
	if (msg.ToneScore != nil && *msg.ToneScore > q.ToneThreshold) || msg.FlaggedReason != nil {
		msg.Status = StatusPendingReview
	}
	if err := q.DB.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}
	createdCount.WithLabelValues(string(msg.Status)).Inc()
	if msg.Status == StatusPendingReview {
		q.Logger.Info("message held for review", "message", msg.ID, "sender", msg.SenderID)
	}
	q.Activity.Record(ctx, activity.Event{
		ActorID:    &msg.SenderID,
		Action:     activity.ActionMessageSent,
		EntityType: "message",
		EntityID:   entityID(msg.ID),
		Metadata:   map[string]any{"status": string(msg.Status)},
	})
	return nil
}

// Approve releases a pending message. Guarded on current status: approving a
// message which is missing, already approved, or rejected returns ErrNotFound.
func (q *Queue) Approve(ctx context.Context, messageID uint, reviewerID string) error {
	return q.review(ctx, messageID, reviewerID, StatusApproved, activity.ActionMessageApproved, nil)
}

// Reject declines a pending message, with an optional reason kept in the
// audit metadata. Same guard as Approve.
func (q *Queue) Reject(ctx context.Context, messageID uint, reviewerID, reason string) error {
	var meta map[string]any
	if reason != "" {
		meta = map[string]any{"reason": reason}
	}
	return q.review(ctx, messageID, reviewerID, StatusRejected, activity.ActionMessageRejected, meta)
}

func (q *Queue) review(ctx context.Context, messageID uint, reviewerID string, to Status, auditAction string, meta map[string]any) error {
	now := time.Now()
	res := q.DB.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND status = ?", messageID, StatusPendingReview).
		Updates(map[string]any{
			"status":      to,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	reviewCount.WithLabelValues(string(to)).Inc()
	q.Logger.Info("message reviewed", "message", messageID, "status", to, "reviewer", reviewerID)
	q.Activity.Record(ctx, activity.Event{
		ActorID:    &reviewerID,
		Action:     auditAction,
		EntityType: "message",
		EntityID:   entityID(messageID),
		Metadata:   meta,
	})
	return nil
}

// FlagMessage sets or updates the flag reason on a message in any
// non-terminal status, bumping it in the review queue ordering. Orthogonal to
// the status machine: the status itself is not changed.
func (q *Queue) FlagMessage(ctx context.Context, messageID uint, reason string) error {
	res := q.DB.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND status IN ?", messageID, []Status{StatusSent, StatusPendingReview}).
		Update("flagged_reason", reason)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	q.Activity.Record(ctx, activity.Event{
		Action:     activity.ActionMessageFlagged,
		EntityType: "message",
		EntityID:   entityID(messageID),
		Metadata:   map[string]any{"reason": reason},
	})
	return nil
}

type ListOpts struct {
	// only messages with a flag reason set
	FlaggedOnly bool
	// most concerning first (tone score desc, nulls last); default is newest first
	SortByTone bool
	Limit      int
	Offset     int
}

// ListPending returns the review queue.
func (q *Queue) ListPending(ctx context.Context, opts ListOpts) ([]Message, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	} else if limit > 100 {
		limit = 100
	}
	tx := q.DB.WithContext(ctx).Where("status = ?", StatusPendingReview)
	if opts.FlaggedOnly {
		tx = tx.Where("flagged_reason IS NOT NULL")
	}
	if opts.SortByTone {
		// portable NULLS LAST across sqlite and postgres
		tx = tx.Order("tone_score IS NULL").Order("tone_score DESC").Order("created_at DESC")
	} else {
		tx = tx.Order("created_at DESC")
	}
	var msgs []Message
	if err := tx.Limit(limit).Offset(opts.Offset).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
