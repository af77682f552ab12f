package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samcorl/vfa-gallery-sub008/actor"
)

// context key under which the auth layer stores the authenticated user ID
const ContextUserID = "user-id"

// health endpoints are exempt from every tier, unconditionally
var exemptPaths = map[string]bool{
	"/_health": true,
	"/healthz": true,
}

// ActorFromRequest derives the rate-limit subject for a request: the
// authenticated user when the auth middleware has run, otherwise the peer IP.
func ActorFromRequest(c echo.Context) actor.Key {
	if uid, ok := c.Get(ContextUserID).(string); ok && uid != "" {
		return actor.UserKey(uid)
	}
	return actor.IPKey(c.RealIP())
}

// Middleware enforces one tier on a route group, emitting the standard
// X-RateLimit-* headers on every response and Retry-After on denials.
func Middleware(l *Limiter, tier Tier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if exemptPaths[c.Path()] {
				return next(c)
			}

			res := l.Check(c.Request().Context(), ActorFromRequest(c), tier)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", fmt.Sprintf("%d", res.Limit))
			h.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
			h.Set("X-RateLimit-Reset", fmt.Sprintf("%d", res.ResetAt.Unix()))
			if !res.Allowed {
				retryAfter := res.RetryAfterSeconds(time.Now())
				h.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				return &echo.HTTPError{
					Code:    http.StatusTooManyRequests,
					Message: fmt.Sprintf("rate limit exceeded, retry in %ds", retryAfter),
				}
			}
			return next(c)
		}
	}
}
