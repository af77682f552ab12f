// Package ratelimit implements per-request admission control: fixed-window
// counters keyed by (actor, tier), with in-memory and redis backing stores.
package ratelimit

import (
	"time"
)

// Tier is a named rate-limit configuration applied to a class of endpoints.
type Tier struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

var (
	TierGeneral = Tier{Name: "general", MaxRequests: 100, Window: time.Minute}
	TierPublic  = Tier{Name: "public", MaxRequests: 200, Window: time.Minute}
	TierAuth    = Tier{Name: "auth", MaxRequests: 5, Window: time.Minute}
	TierUpload  = Tier{Name: "upload", MaxRequests: 10, Window: time.Hour}
	TierMessage = Tier{Name: "message", MaxRequests: 10, Window: time.Hour}
)
