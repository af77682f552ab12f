package heuristics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcorl/vfa-gallery-sub008/activity"
	"github.com/samcorl/vfa-gallery-sub008/actor"
)

func testEngine(t *testing.T) (*Engine, *activity.Recorder, *actor.MemDirectory) {
	dir := actor.NewMemDirectory()
	rec := activity.NewRecorder(activity.NewMemEventStore(), nil)
	eng := NewEngine(rec, dir, nil)
	return eng, rec, dir
}

func record(rec *activity.Recorder, actorID, action, ip string, at time.Time) {
	var aid *string
	if actorID != "" {
		aid = &actorID
	}
	rec.Record(context.Background(), activity.Event{
		ActorID:   aid,
		Action:    action,
		IPAddress: ip,
		CreatedAt: at,
	})
}

func TestCheckRapidUploads(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, rec, _ := testEngine(t)
	now := time.Now()

	for i := 0; i < 5; i++ {
		record(rec, "u1", activity.ActionArtworkCreated, "1.1.1.1", now.Add(-10*time.Second))
	}
	res, err := eng.CheckRapidUploads(ctx, "u1")
	require.NoError(err)
	assert.False(res.Detected)
	assert.Equal(5, res.Count)

	record(rec, "u1", activity.ActionArtworkCreated, "1.1.1.1", now)
	res, err = eng.CheckRapidUploads(ctx, "u1")
	require.NoError(err)
	assert.True(res.Detected)
	assert.Equal(6, res.Count)

	// stale uploads fall out of the trailing window
	res, err = eng.CheckRapidUploads(ctx, "u2")
	require.NoError(err)
	assert.False(res.Detected)
}

func TestCheckBulkGalleryCreation(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, rec, _ := testEngine(t)
	now := time.Now()

	for i := 0; i < 11; i++ {
		record(rec, "u1", activity.ActionGalleryCreated, "1.1.1.1", now.Add(-30*time.Minute))
	}
	res, err := eng.CheckBulkGalleryCreation(ctx, "u1")
	require.NoError(err)
	assert.True(res.Detected)
	assert.Equal(11, res.Count)

	// outside the trailing hour
	eng2, rec2, _ := testEngine(t)
	for i := 0; i < 11; i++ {
		record(rec2, "u1", activity.ActionGalleryCreated, "1.1.1.1", now.Add(-2*time.Hour))
	}
	res, err = eng2.CheckBulkGalleryCreation(ctx, "u1")
	require.NoError(err)
	assert.False(res.Detected)
}

func TestCheckUnusualLoginIP(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, rec, _ := testEngine(t)
	now := time.Now()

	// no history at all: not suspicious
	res, err := eng.CheckUnusualLoginIP(ctx, "u1", "ip-B")
	require.NoError(err)
	assert.False(res.Unusual)
	assert.Empty(res.KnownNetworks)

	record(rec, "u1", activity.ActionUserLogin, "ip-A", now.Add(-time.Hour))
	res, err = eng.CheckUnusualLoginIP(ctx, "u1", "ip-B")
	require.NoError(err)
	assert.True(res.Unusual)

	res, err = eng.CheckUnusualLoginIP(ctx, "u1", "ip-A")
	require.NoError(err)
	assert.False(res.Unusual)

	// signup addresses count as known
	record(rec, "u2", activity.ActionUserSignup, "ip-S", now.Add(-time.Hour))
	res, err = eng.CheckUnusualLoginIP(ctx, "u2", "ip-S")
	require.NoError(err)
	assert.False(res.Unusual)
}

func TestCheckFailedLoginBurst(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, rec, _ := testEngine(t)
	now := time.Now()

	for i := 0; i < 4; i++ {
		record(rec, "", activity.ActionUserLoginFailed, "9.9.9.9", now.Add(-time.Minute))
	}
	res, err := eng.CheckFailedLoginBurst(ctx, "9.9.9.9")
	require.NoError(err)
	assert.False(res.Detected)

	record(rec, "", activity.ActionUserLoginFailed, "9.9.9.9", now)
	res, err = eng.CheckFailedLoginBurst(ctx, "9.9.9.9")
	require.NoError(err)
	assert.True(res.Detected)
	assert.Equal(5, res.Count)

	// other addresses unaffected
	res, err = eng.CheckFailedLoginBurst(ctx, "8.8.8.8")
	require.NoError(err)
	assert.False(res.Detected)
}
