package explore_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/streammatch/internal/app"
	"github.com/oggyb/streammatch/internal/cache"
	"github.com/oggyb/streammatch/internal/config"
	"github.com/oggyb/streammatch/internal/db"
	svcErr "github.com/oggyb/streammatch/internal/errors"
	"github.com/oggyb/streammatch/internal/service/explore"
)

//
// Test helpers
//

// Fixed ids in ascending lexicographic order so canonical ordering is
// predictable in assertions.
const (
	u1 = "11111111-1111-1111-1111-111111111111"
	u2 = "22222222-2222-2222-2222-222222222222"
	u3 = "33333333-3333-3333-3333-333333333333"
)

// seedMinimalTestData wipes the DB and inserts a minimal, deterministic
// dataset for repeatable service tests.
//
// Dataset:
//   - Profiles: u1, u2, u3
//   - Swipes:
//   - u1 → u2 = like (one-directional so far)
//   - u3 → u1 = like (but excluded later because u1 → u3 = pass)
//   - u1 → u3 = pass
//
// This dataset allows us to test all cases:
//   - reciprocity detection and match creation when u2 likes back
//   - filtering out passed profiles
//   - cache counting correctness
func seedMinimalTestData(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	// Clean slate
	require.NoError(t, gdb.Exec("DELETE FROM matches").Error)
	require.NoError(t, gdb.Exec("DELETE FROM swipes").Error)
	require.NoError(t, gdb.Exec("DELETE FROM profiles").Error)

	profiles := []db.Profile{
		{ID: u1, Username: "streamer1"},
		{ID: u2, Username: "streamer2"},
		{ID: u3, Username: "streamer3"},
	}
	require.NoError(t, gdb.Create(&profiles).Error)

	swipes := []db.Swipe{
		{SwiperID: u1, TargetID: u2, Liked: true},  // u1 → u2
		{SwiperID: u3, TargetID: u1, Liked: true},  // u3 → u1 (excluded later)
		{SwiperID: u1, TargetID: u3, Liked: false}, // u1 → u3 (pass)
	}
	require.NoError(t, gdb.Create(&swipes).Error)
}

// setupService spins up an in-memory SQLite DB, applies migrations, seeds
// test data, starts a miniredis, and wires everything into an ExploreService
// instance.
//
// Each test gets its own isolated DB + Redis.
func setupService(t *testing.T) (*explore.Service, *gorm.DB) {
	t.Helper()

	// In-memory SQLite
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	// Auto-migrate schema
	require.NoError(t, dbase.AutoMigrate(&db.Profile{}, &db.Swipe{}, &db.Match{}))

	// Seed data
	seedMinimalTestData(t, dbase)

	// Fake Redis
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	appCtx := app.New(dbase, redisCache, logger)
	return explore.NewExploreService(appCtx), dbase
}

func matchCount(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, gdb.Model(&db.Match{}).Count(&count).Error)
	return count
}

//
// Tests
//

// A one-directional like must never create a match: u2 has not decided on u3
// yet, so u3's like stays pending.
func TestPutSwipeOneDirectionalNoMatch(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	result, err := svc.PutSwipe(ctx, u2, u3, true)
	require.NoError(t, err)

	assert.False(t, result.Matched)
	assert.Nil(t, result.Match)
	assert.Equal(t, int64(0), matchCount(t, gdb))
}

// When u2 likes back u1 (who already liked u2 in the seed dataset), exactly
// one canonical match row is created and returned with u1's profile.
func TestPutSwipeMutualCreatesMatch(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	result, err := svc.PutSwipe(ctx, u2, u1, true)
	require.NoError(t, err)

	assert.True(t, result.Matched)
	require.NotNil(t, result.Match)
	assert.Equal(t, u1, result.Match.UserLo)
	assert.Equal(t, u2, result.Match.UserHi)
	require.NotNil(t, result.MatchedProfile)
	assert.Equal(t, "streamer1", result.MatchedProfile.Username)

	assert.Equal(t, int64(1), matchCount(t, gdb))
}

// Both sessions completing the same pair must converge on one row with the
// same id, whichever side swipes last or retries.
func TestPutSwipeBothSidesOneRow(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	first, err := svc.PutSwipe(ctx, u2, u1, true)
	require.NoError(t, err)
	require.True(t, first.Matched)

	// u1 re-swipes right on u2: overwrite, same match
	second, err := svc.PutSwipe(ctx, u1, u2, true)
	require.NoError(t, err)
	require.True(t, second.Matched)

	assert.Equal(t, first.Match.ID, second.Match.ID)
	assert.Equal(t, int64(1), matchCount(t, gdb))
}

// A left swipe records the decision and never triggers the reciprocity
// check: even if the target had liked the swiper, no match appears.
func TestPutSwipeLeftNeverMatches(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	// u1 already likes u2 in the seed data; u2 passing u1 must not match
	result, err := svc.PutSwipe(ctx, u2, u1, false)
	require.NoError(t, err)

	assert.False(t, result.Matched)
	assert.Equal(t, int64(0), matchCount(t, gdb))

	var swipe db.Swipe
	require.NoError(t, gdb.Where("swiper_id = ? AND target_id = ?", u2, u1).First(&swipe).Error)
	assert.False(t, swipe.Liked)
}

// A storage failure while recording the swipe stops the pipeline before the
// reciprocity check: no swipe row, no match.
func TestPutSwipeRecordFailureStopsPipeline(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	fail := false
	require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register("test_fail_create", func(tx *gorm.DB) {
		if fail {
			tx.AddError(gorm.ErrInvalidDB)
		}
	}))

	fail = true
	_, err := svc.PutSwipe(ctx, u2, u1, true)
	fail = false

	assert.ErrorIs(t, err, svcErr.ErrSwipeRecordingFailed)

	var count int64
	require.NoError(t, gdb.Model(&db.Swipe{}).Where("swiper_id = ?", u2).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, int64(0), matchCount(t, gdb))
}

// A failed reciprocity read is indeterminate, never "no": the caller gets an
// error, the swipe stays durably recorded, and no match is created.
func TestPutSwipeReciprocityCheckFailure(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	fail := false
	require.NoError(t, gdb.Callback().Query().Before("gorm:query").Register("test_fail_query", func(tx *gorm.DB) {
		if fail {
			tx.AddError(gorm.ErrInvalidDB)
		}
	}))

	// u2 likes u1 back (mutual with the seeded u1 → u2 like), but the
	// reciprocity read fails
	fail = true
	_, err := svc.PutSwipe(ctx, u2, u1, true)
	fail = false

	assert.ErrorIs(t, err, svcErr.ErrReciprocityCheckFailed)

	var swipe db.Swipe
	require.NoError(t, gdb.Where("swiper_id = ? AND target_id = ?", u2, u1).First(&swipe).Error)
	assert.True(t, swipe.Liked)

	assert.Equal(t, int64(0), matchCount(t, gdb))
}

func TestPutSwipeRejectsSelf(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.PutSwipe(ctx, u1, u1, true)
	assert.ErrorIs(t, err, svcErr.ErrSelfSwipe)
}

// Explore must exclude the viewer and every already-swiped target.
func TestExploreExcludesSwiped(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// u1 already decided on u2 (like) and u3 (pass) → nothing left
	profiles, err := svc.Explore(ctx, u1)
	require.NoError(t, err)
	assert.Len(t, profiles, 0)

	// u2 has not swiped anyone → sees u1 and u3
	profiles, err = svc.Explore(ctx, u2)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	for _, p := range profiles {
		assert.NotEqual(t, u2, p.ID)
		assert.NotNil(t, p.Categories) // normalized, never null
	}
}

// TestListLikedYou checks that only valid likers are returned.
// u3 liked u1 but was passed by u1, so the list is empty until u2 likes u1.
func TestListLikedYou(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	likers, _, err := svc.ListLikedYou(ctx, u1, nil)
	require.NoError(t, err)
	require.Len(t, likers, 0)

	_, err = svc.PutSwipe(ctx, u2, u1, true)
	require.NoError(t, err)

	likers, _, err = svc.ListLikedYou(ctx, u1, nil)
	require.NoError(t, err)
	require.Len(t, likers, 1)
	assert.Equal(t, u2, likers[0].SwiperID)
}

// TestListNewLikedYou checks that mutual likes are filtered out.
func TestListNewLikedYou(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// u2 likes u1 → mutual with the seeded u1 → u2 like
	_, err := svc.PutSwipe(ctx, u2, u1, true)
	require.NoError(t, err)

	// mutual from both perspectives → neither side lists the other as "new"
	likers, _, err := svc.ListNewLikedYou(ctx, u1, nil)
	require.NoError(t, err)
	require.Len(t, likers, 0)

	likers, _, err = svc.ListNewLikedYou(ctx, u2, nil)
	require.NoError(t, err)
	require.Len(t, likers, 0)
}

// TestCountLikedYouCache verifies like counts with cache.
func TestCountLikedYouCache(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.PutSwipe(ctx, u2, u1, true)
	require.NoError(t, err)

	// First call → DB (u2 counts; u3 excluded due to u1's pass)
	count1, err := svc.CountLikedYou(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count1)

	// Second call → cache
	count2, err := svc.CountLikedYou(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count2)
}
