package heuristics

import (
	"context"
	"errors"
	"fmt"

	"github.com/samcorl/vfa-gallery-sub008/activity"
	"github.com/samcorl/vfa-gallery-sub008/actor"
)

// flag names produced by the built-in checks
const (
	FlagRapidUploads        = "rapid_uploads"
	FlagBulkGalleryCreation = "bulk_gallery_creation"
	FlagUnusualLoginIP      = "unusual_login_ip"
	FlagFailedLoginBurst    = "failed_login_burst"
)

// entity tagging on flag audit events; dedup queries key on this
const flagEntityType = "flag"

var (
	ErrInvalidSeverity = errors.New("invalid flag severity")
	// ClearFlags on an actor whose status is not `flagged`
	ErrNotFlagged = errors.New("actor is not currently flagged")
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
}

// Escalates reports whether this severity transitions the actor to `flagged`.
func (s Severity) Escalates() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// statuses from which an escalation may move an actor to `flagged`: anything
// except `suspended`, which is administrator territory and never touched.
// Already-flagged actors are left alone rather than re-transitioned.
var escalatableStatuses = []actor.TrustStatus{actor.StatusPending, actor.StatusActive, actor.StatusDeactivated}

// Flag records a suspicion about an actor. Idempotent within the dedup
// window: an identical flag name for the same actor is a silent no-op, so one
// burst of violations doesn't bury the audit log. High and critical
// severities additionally escalate the actor's trust status to `flagged`.
func (e *Engine) Flag(ctx context.Context, actorID, flagName string, severity Severity, details map[string]any, ipAddress, userAgent string) error {
	if _, err := ParseSeverity(string(severity)); err != nil {
		return err
	}

	since := e.now().Add(-e.Config.FlagDedupeWindow)
	existing, err := e.Activity.CountSinceEntity(ctx, actorID, activity.ActionSuspiciousFlagged, flagEntityType, flagName, since)
	if err != nil {
		return fmt.Errorf("checking for duplicate flags: %w", err)
	}
	if existing > 0 {
		e.Logger.Debug("skipping duplicate flag", "actor", actorID, "flag", flagName)
		flagDupeCount.WithLabelValues(flagName).Inc()
		return nil
	}

	metadata := map[string]any{"severity": string(severity)}
	for k, v := range details {
		metadata[k] = v
	}
	e.Activity.Record(ctx, activity.Event{
		ActorID:    &actorID,
		Action:     activity.ActionSuspiciousFlagged,
		EntityType: flagEntityType,
		EntityID:   flagName,
		Metadata:   metadata,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	})
	flagCount.WithLabelValues(flagName, string(severity)).Inc()
	e.Logger.Info("actor flagged", "actor", actorID, "flag", flagName, "severity", severity)

	if severity.Escalates() {
		transitioned, err := e.Directory.Transition(ctx, actorID, escalatableStatuses, actor.StatusFlagged)
		if err != nil {
			return fmt.Errorf("escalating trust status: %w", err)
		}
		if transitioned {
			escalationCount.WithLabelValues(flagName).Inc()
			e.Logger.Info("trust status escalated", "actor", actorID, "flag", flagName)
		}
		e.notify(ctx, fmt.Sprintf("🚩 actor `%s` flagged `%s` severity=`%s`", actorID, flagName, severity))
	}
	return nil
}

// ClearFlags is the administrator action returning a flagged actor to good
// standing. Rejects (rather than silently ignoring) actors which are not
// currently flagged, so a stale admin view can't double-clear.
func (e *Engine) ClearFlags(ctx context.Context, actorID, reviewedBy, notes string) error {
	transitioned, err := e.Directory.Transition(ctx, actorID, []actor.TrustStatus{actor.StatusFlagged}, actor.StatusActive)
	if err != nil {
		return fmt.Errorf("clearing trust status: %w", err)
	}
	if !transitioned {
		return ErrNotFlagged
	}

	e.Activity.Record(ctx, activity.Event{
		ActorID:    &actorID,
		Action:     activity.ActionSuspiciousCleared,
		EntityType: flagEntityType,
		Metadata:   map[string]any{"reviewed_by": reviewedBy, "notes": notes},
	})
	clearCount.Inc()
	e.Logger.Info("flags cleared", "actor", actorID, "reviewed_by", reviewedBy)
	return nil
}

func (e *Engine) notify(ctx context.Context, msg string) {
	if e.Notifier == nil {
		return
	}
	if err := e.Notifier.Send(ctx, msg); err != nil {
		e.Logger.Warn("notifier send failed", "err", err)
	}
}
