package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/oggyb/streammatch/internal/db"
	"github.com/oggyb/streammatch/internal/repository"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Fixed ids in ascending lexicographic order so canonical ordering is
// predictable in assertions.
const (
	idA = "11111111-1111-1111-1111-111111111111"
	idB = "22222222-2222-2222-2222-222222222222"
	idC = "33333333-3333-3333-3333-333333333333"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&db.Profile{}, &db.Swipe{}, &db.Match{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestRecordSwipeOverwrites(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// insert like
	err := repo.RecordSwipe(ctx, idA, idB, true)
	assert.NoError(t, err)

	// overwrite with pass: still one row, direction updated
	err = repo.RecordSwipe(ctx, idA, idB, false)
	assert.NoError(t, err)

	var swipes []db.Swipe
	_ = dbase.Find(&swipes).Error
	assert.Len(t, swipes, 1)
	assert.Equal(t, false, swipes[0].Liked)
}

func TestHasReciprocated(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// nothing recorded yet
	ok, err := repo.HasReciprocated(ctx, idB, idA)
	assert.NoError(t, err)
	assert.False(t, ok)

	// B liked A → reciprocity from A's perspective
	assert.NoError(t, repo.RecordSwipe(ctx, idB, idA, true))
	ok, err = repo.HasReciprocated(ctx, idB, idA)
	assert.NoError(t, err)
	assert.True(t, ok)

	// a pass is not reciprocity
	assert.NoError(t, repo.RecordSwipe(ctx, idC, idA, false))
	ok, err = repo.HasReciprocated(ctx, idC, idA)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGetLikersExcludesPassed(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// A and B liked C
	_ = repo.RecordSwipe(ctx, idA, idC, true)
	_ = repo.RecordSwipe(ctx, idB, idC, true)
	// C passed B → exclude B
	_ = repo.RecordSwipe(ctx, idC, idB, false)

	swipes, _, err := repo.GetLikers(ctx, idC, nil, 10)
	assert.NoError(t, err)
	assert.Len(t, swipes, 1)
	assert.Equal(t, idA, swipes[0].SwiperID)
}

func TestGetNewLikersExcludesMutual(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// A liked C, and C liked back → mutual
	_ = repo.RecordSwipe(ctx, idA, idC, true)
	_ = repo.RecordSwipe(ctx, idC, idA, true)

	// B liked C, not mutual
	_ = repo.RecordSwipe(ctx, idB, idC, true)

	swipes, _, err := repo.GetNewLikers(ctx, idC, nil, 10)
	assert.NoError(t, err)
	assert.Len(t, swipes, 1)
	assert.Equal(t, idB, swipes[0].SwiperID)
}

func TestCountLikers(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	_ = repo.RecordSwipe(ctx, idA, idC, true)
	_ = repo.RecordSwipe(ctx, idB, idC, true)
	_ = repo.RecordSwipe(ctx, idC, idA, false) // C passed A → A excluded

	count, err := repo.CountLikers(ctx, idC)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
