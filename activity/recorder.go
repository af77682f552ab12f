package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samcorl/vfa-gallery-sub008/notify"
)

// Recorder is the write/read facade over the activity log.
//
// Record never returns an error: an audit-log outage must not fail the
// user-facing action which triggered the write. Failures are logged, counted,
// and reported to the operational notifier instead.
type Recorder struct {
	Store    EventStore
	Logger   *slog.Logger
	Notifier notify.Notifier
}

func NewRecorder(store EventStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		Store:  store,
		Logger: logger.With("system", "activity"),
	}
}

func (r *Recorder) Record(ctx context.Context, evt Event) {
	if err := r.Store.Append(ctx, &evt); err != nil {
		recordFailureCount.WithLabelValues(evt.Action).Inc()
		r.Logger.Error("failed to append activity event", "err", err, "action", evt.Action)
		if r.Notifier != nil {
			msg := fmt.Sprintf("activity log write failed: action=`%s` err=`%s`", evt.Action, err)
			if nerr := r.Notifier.Send(ctx, msg); nerr != nil {
				r.Logger.Warn("operational notification failed", "err", nerr)
			}
		}
		return
	}
	recordCount.WithLabelValues(evt.Action).Inc()
}

func (r *Recorder) CountSince(ctx context.Context, actorID, action string, since time.Time) (int, error) {
	return r.Store.CountSince(ctx, actorID, action, since)
}

func (r *Recorder) CountSinceEntity(ctx context.Context, actorID, action, entityType, entityID string, since time.Time) (int, error) {
	return r.Store.CountSinceEntity(ctx, actorID, action, entityType, entityID, since)
}

func (r *Recorder) CountByIPSince(ctx context.Context, ipAddress, action string, since time.Time) (int, error) {
	return r.Store.CountByIPSince(ctx, ipAddress, action, since)
}

func (r *Recorder) RecentNetworks(ctx context.Context, actorID string, actions []string, limit int) ([]string, error) {
	return r.Store.RecentNetworks(ctx, actorID, actions, limit)
}
