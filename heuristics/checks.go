package heuristics

import (
	"context"
	"fmt"

	"github.com/samcorl/vfa-gallery-sub008/activity"
)

// CheckResult is the outcome of a single heuristic check.
type CheckResult struct {
	Detected bool
	Count    int
}

type IPCheckResult struct {
	Unusual       bool
	KnownNetworks []string
}

// CheckRapidUploads detects upload bursts in the trailing window.
func (e *Engine) CheckRapidUploads(ctx context.Context, actorID string) (CheckResult, error) {
	since := e.now().Add(-e.Config.RapidUploadWindow)
	count, err := e.Activity.CountSince(ctx, actorID, activity.ActionArtworkCreated, since)
	if err != nil {
		return CheckResult{}, fmt.Errorf("counting recent uploads: %w", err)
	}
	return CheckResult{Detected: count > e.Config.RapidUploadMax, Count: count}, nil
}

// CheckBulkGalleryCreation detects mass gallery creation in the trailing window.
func (e *Engine) CheckBulkGalleryCreation(ctx context.Context, actorID string) (CheckResult, error) {
	since := e.now().Add(-e.Config.BulkGalleryWindow)
	count, err := e.Activity.CountSince(ctx, actorID, activity.ActionGalleryCreated, since)
	if err != nil {
		return CheckResult{}, fmt.Errorf("counting recent galleries: %w", err)
	}
	return CheckResult{Detected: count > e.Config.BulkGalleryMax, Count: count}, nil
}

// CheckUnusualLoginIP reports whether the current address is absent from the
// actor's recent login/signup history. An empty history is not suspicious:
// first logins are expected to come from somewhere new.
func (e *Engine) CheckUnusualLoginIP(ctx context.Context, actorID, currentIP string) (IPCheckResult, error) {
	known, err := e.Activity.RecentNetworks(ctx, actorID,
		[]string{activity.ActionUserLogin, activity.ActionUserSignup}, e.Config.LoginHistorySize)
	if err != nil {
		return IPCheckResult{}, fmt.Errorf("fetching login history: %w", err)
	}
	if len(known) == 0 {
		return IPCheckResult{KnownNetworks: known}, nil
	}
	for _, addr := range known {
		if addr == currentIP {
			return IPCheckResult{KnownNetworks: known}, nil
		}
	}
	return IPCheckResult{Unusual: true, KnownNetworks: known}, nil
}

// CheckFailedLoginBurst detects repeated login failures from one source
// address, actor-independent (credential stuffing probes have no actor).
func (e *Engine) CheckFailedLoginBurst(ctx context.Context, ipAddress string) (CheckResult, error) {
	since := e.now().Add(-e.Config.FailedLoginWindow)
	count, err := e.Activity.CountByIPSince(ctx, ipAddress, activity.ActionUserLoginFailed, since)
	if err != nil {
		return CheckResult{}, fmt.Errorf("counting failed logins: %w", err)
	}
	return CheckResult{Detected: count >= e.Config.FailedLoginMax, Count: count}, nil
}
