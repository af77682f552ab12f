// Package heuristics runs the behavioral abuse checks against the activity
// log, and owns the flag/escalation state machine on actor trust status.
package heuristics

import (
	"context"
	"log/slog"
	"time"

	"github.com/samcorl/vfa-gallery-sub008/activity"
	"github.com/samcorl/vfa-gallery-sub008/actor"
	"github.com/samcorl/vfa-gallery-sub008/notify"
)

type Config struct {
	// rapid uploads: more than RapidUploadMax artwork_created in the window
	RapidUploadMax    int
	RapidUploadWindow time.Duration
	// bulk gallery creation
	BulkGalleryMax    int
	BulkGalleryWindow time.Duration
	// failed login burst, keyed by source IP
	FailedLoginMax    int
	FailedLoginWindow time.Duration
	// how many recent login/signup IPs count as "known"
	LoginHistorySize int
	// identical flags within this window collapse to one
	FlagDedupeWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		RapidUploadMax:    5,
		RapidUploadWindow: 60 * time.Second,
		BulkGalleryMax:    10,
		BulkGalleryWindow: time.Hour,
		FailedLoginMax:    5,
		FailedLoginWindow: 15 * time.Minute,
		LoginHistorySize:  10,
		FlagDedupeWindow:  time.Hour,
	}
}

// Engine evaluates the check battery and applies flags. Checks are invoked
// after the triggering action completes (post-action), never in front of it,
// and run synchronously so that request-scoped runtimes with no background
// execution still get at-least-once flagging.
type Engine struct {
	Logger    *slog.Logger
	Activity  *activity.Recorder
	Directory actor.Directory
	Notifier  notify.Notifier
	Config    Config
	// override for tests; defaults to time.Now
	NowFunc func() time.Time
}

func NewEngine(rec *activity.Recorder, dir actor.Directory, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Logger:    logger.With("system", "heuristics"),
		Activity:  rec,
		Directory: dir,
		Config:    DefaultConfig(),
	}
}

func (e *Engine) now() time.Time {
	if e.NowFunc != nil {
		return e.NowFunc()
	}
	return time.Now()
}

// ProcessAction dispatches the checks relevant to a just-completed action and
// applies flags for anything detected. Like an HTTP server, panics from check
// execution are recovered rather than crashing the caller.
func (e *Engine) ProcessAction(ctx context.Context, actorID, action, ipAddress, userAgent string) error {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("heuristics execution exception", "err", r, "actor", actorID, "action", action)
		}
	}()
	processedCount.WithLabelValues(action).Inc()

	switch action {
	case activity.ActionArtworkCreated:
		res, err := e.CheckRapidUploads(ctx, actorID)
		if err != nil {
			return err
		}
		if res.Detected {
			return e.Flag(ctx, actorID, FlagRapidUploads, SeverityHigh,
				map[string]any{"count": res.Count, "window_seconds": int(e.Config.RapidUploadWindow.Seconds())},
				ipAddress, userAgent)
		}
	case activity.ActionGalleryCreated:
		res, err := e.CheckBulkGalleryCreation(ctx, actorID)
		if err != nil {
			return err
		}
		if res.Detected {
			return e.Flag(ctx, actorID, FlagBulkGalleryCreation, SeverityMedium,
				map[string]any{"count": res.Count, "window_seconds": int(e.Config.BulkGalleryWindow.Seconds())},
				ipAddress, userAgent)
		}
	case activity.ActionUserLogin:
		res, err := e.CheckUnusualLoginIP(ctx, actorID, ipAddress)
		if err != nil {
			return err
		}
		if res.Unusual {
			return e.Flag(ctx, actorID, FlagUnusualLoginIP, SeverityLow,
				map[string]any{"ip_address": ipAddress, "known_networks": len(res.KnownNetworks)},
				ipAddress, userAgent)
		}
	case activity.ActionUserLoginFailed:
		res, err := e.CheckFailedLoginBurst(ctx, ipAddress)
		if err != nil {
			return err
		}
		if res.Detected {
			// no authenticated actor on a failed login; flag the source address
			return e.Flag(ctx, string(actor.IPKey(ipAddress)), FlagFailedLoginBurst, SeverityHigh,
				map[string]any{"count": res.Count, "window_seconds": int(e.Config.FailedLoginWindow.Seconds())},
				ipAddress, userAgent)
		}
	}
	return nil
}
