package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(l *Limiter, tier Tier) *echo.Echo {
	e := echo.New()
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/_health", handler, Middleware(l, tier))
	e.POST("/login", handler, Middleware(l, tier))
	return e
}

func TestMiddlewareHeaders(t *testing.T) {
	assert := assert.New(t)

	l := NewLimiter(NewMemCounterStore(), nil)
	e := newTestApp(l, TierAuth)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.9:4321"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal("4", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(rec.Header().Get("X-RateLimit-Reset"))
}

func TestMiddlewareDenies(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	l := NewLimiter(NewMemCounterStore(), nil)
	e := newTestApp(l, TierAuth)

	var rec *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.9:4321"
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}

	assert.Equal(http.StatusTooManyRequests, rec.Code)
	assert.Equal("0", rec.Header().Get("X-RateLimit-Remaining"))
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(err)
	assert.Greater(retry, 0)
	assert.LessOrEqual(retry, 60)
}

func TestMiddlewareSeparatesActors(t *testing.T) {
	assert := assert.New(t)

	l := NewLimiter(NewMemCounterStore(), nil)
	e := newTestApp(l, TierAuth)

	// exhaust the window for one address
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.9:4321"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}

	// an authenticated user behind the same address has their own counter
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.9:4321"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextUserID, "u42")
	handler := Middleware(l, TierAuth)(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	assert.NoError(handler(c))
	assert.Equal(http.StatusOK, rec.Code)
}

func TestMiddlewareHealthExempt(t *testing.T) {
	assert := assert.New(t)

	l := NewLimiter(NewMemCounterStore(), nil)
	e := newTestApp(l, TierAuth)

	// far past any tier budget; health stays reachable
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/_health", nil)
		req.RemoteAddr = "10.0.0.9:4321"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(http.StatusOK, rec.Code)
	}
}
