// Package actor holds the slice of user identity which the trust-and-safety
// core is allowed to touch: the actor key used for rate limiting and
// heuristics, and the coarse trust status on the account.
//
// Account rows themselves are owned by the identity service; this package only
// reads them and performs guarded status transitions.
package actor

import (
	"strings"
)

// Key identifies the subject of rate limiting and abuse heuristics: the
// authenticated user when there is one, otherwise the source IP address.
// Derived per request, never persisted.
type Key string

func UserKey(userID string) Key {
	return Key("user:" + userID)
}

func IPKey(addr string) Key {
	return Key("ip:" + addr)
}

// IsUser indicates an authenticated actor (vs an anonymous IP-based one).
func (k Key) IsUser() bool {
	return strings.HasPrefix(string(k), "user:")
}

// Subject returns the user ID or IP address without the prefix.
func (k Key) Subject() string {
	_, after, found := strings.Cut(string(k), ":")
	if !found {
		return string(k)
	}
	return after
}

type TrustStatus string

const (
	StatusPending     TrustStatus = "pending"
	StatusActive      TrustStatus = "active"
	StatusFlagged     TrustStatus = "flagged"
	StatusSuspended   TrustStatus = "suspended"
	StatusDeactivated TrustStatus = "deactivated"
)
