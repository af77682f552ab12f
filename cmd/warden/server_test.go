package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcorl/vfa-gallery-sub008/activity"
	"github.com/samcorl/vfa-gallery-sub008/heuristics"
)

// one shared server: the prometheus middleware registers its collectors in the
// default registry, which tolerates only a single registration per process
var (
	testSrv     *Server
	testSrvErr  error
	testSrvOnce sync.Once
)

func testServer(t *testing.T) *Server {
	testSrvOnce.Do(func() {
		testSrv, testSrvErr = NewServer(Config{
			DatabaseURL: "sqlite://:memory:",
			Logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
		})
	})
	require.NoError(t, testSrvErr)
	return testSrv
}

func postLogin(srv *Server, userID, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"user_id":"`+userID+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Real-Ip", ip)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestLoginFlagsUnusualIP(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	srv := testServer(t)

	uid := "u1"
	srv.recorder.Record(ctx, activity.Event{
		ActorID:   &uid,
		Action:    activity.ActionUserLogin,
		IPAddress: "203.0.113.7",
		CreatedAt: time.Now().Add(-time.Hour),
	})

	// login from an address absent from the history: the flag must land even
	// though the handler also records this login
	rec := postLogin(srv, uid, "198.51.100.9")
	require.Equal(http.StatusOK, rec.Code)

	since := time.Now().Add(-time.Minute)
	count, err := srv.recorder.CountSinceEntity(ctx, uid, activity.ActionSuspiciousFlagged, "flag", heuristics.FlagUnusualLoginIP, since)
	require.NoError(err)
	assert.Equal(1, count)

	// the login itself was still recorded after the check ran
	count, err = srv.recorder.CountSince(ctx, uid, activity.ActionUserLogin, since)
	require.NoError(err)
	assert.Equal(1, count)
}

func TestLoginKnownIPNotFlagged(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	srv := testServer(t)

	uid := "u2"
	srv.recorder.Record(ctx, activity.Event{
		ActorID:   &uid,
		Action:    activity.ActionUserLogin,
		IPAddress: "203.0.113.7",
		CreatedAt: time.Now().Add(-time.Hour),
	})

	rec := postLogin(srv, uid, "203.0.113.7")
	require.Equal(http.StatusOK, rec.Code)

	count, err := srv.recorder.CountSinceEntity(ctx, uid, activity.ActionSuspiciousFlagged, "flag", heuristics.FlagUnusualLoginIP, time.Now().Add(-time.Minute))
	require.NoError(err)
	assert.Equal(0, count)
}
