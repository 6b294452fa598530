package repository

import (
	"context"
	"time"

	"github.com/oggyb/streammatch/internal/db"
	"github.com/oggyb/streammatch/internal/utils/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SwipeRepository provides data access methods for the Swipe model.
// It encapsulates all queries related to likes/passes between profiles.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// RecordSwipe inserts or updates a decision made by swiper -> target.
//
// Behavior:
//   - If the (swiper_id, target_id) pair exists → the row is updated with the
//     new "liked" value. Re-swiping never accumulates duplicate rows.
//   - If it doesn't exist → a new row is inserted.
//   - The insert either fully succeeds or fails without partial effect.
//
// Example:
//
//	repo.RecordSwipe(ctx, "a3f…", "b71…", true) // a3f liked b71
func (r *SwipeRepository) RecordSwipe(
	ctx context.Context,
	swiperID, targetID string,
	liked bool,
) error {
	swipe := db.Swipe{
		SwiperID: swiperID,
		TargetID: targetID,
		Liked:    liked,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "swiper_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
		}).
		Create(&swipe).Error
}

// HasReciprocated checks whether the target of a swipe had previously liked
// the swiper, i.e. roles inverted from the caller's perspective.
//
// Behavior:
//   - Returns true iff a row exists where swiper_id = targetID,
//     target_id = swiperID and liked = true at query time.
//   - Point-in-time read; it does not lock against concurrent writes. The
//     match pair index is what arbitrates the resulting race.
//   - A query error means "unknown", never false — the caller must not
//     treat it as absence of reciprocity.
func (r *SwipeRepository) HasReciprocated(
	ctx context.Context,
	targetID, swiperID string,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.swiper_id = ? AND s.target_id = ? AND s.liked = true", targetID, swiperID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikers returns all profiles who liked the given target.
//
// Behavior:
//   - Only swipes where target_id = X and liked = true are returned.
//   - Excludes profiles that the target explicitly passed (liked = false).
//   - Ordered by updated_at DESC, swiper_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikers(ctx, "b71…", nil, 20) // first 20 people who liked b71
func (r *SwipeRepository) GetLikers(
	ctx context.Context,
	targetID string,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	return r.likersQuery(ctx, targetID, paginationToken, limit, false)
}

// GetNewLikers returns profiles who liked the target but have not been liked
// back yet.
//
// Behavior:
//   - Only swipes where target_id = X and liked = true are considered.
//   - Excludes mutual likes (target already liked them back).
//   - Excludes profiles the target explicitly passed.
//   - Ordered by updated_at DESC, swiper_id DESC, cursor-paginated.
func (r *SwipeRepository) GetNewLikers(
	ctx context.Context,
	targetID string,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	return r.likersQuery(ctx, targetID, paginationToken, limit, true)
}

// likersQuery is the shared implementation of GetLikers/GetNewLikers.
func (r *SwipeRepository) likersQuery(
	ctx context.Context,
	targetID string,
	paginationToken *string,
	limit int,
	excludeMutual bool,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.liked = true", targetID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.swiper_id = ?
				  AND s2.target_id = s.swiper_id
				  AND s2.liked = false
			)`, targetID).
		Order("s.updated_at DESC, s.swiper_id DESC").
		Limit(limit + 1)

	if excludeMutual {
		subQuery := r.db.
			Table("swipes").
			Select("1").
			Where("swiper_id = s.target_id AND target_id = s.swiper_id AND liked = true")
		query = query.Where("NOT EXISTS (?)", subQuery)
	}

	// apply cursor
	if !cursor.Empty() {
		ts := time.UnixMilli(cursor.UnixMillis)
		query = query.Where(
			"(s.updated_at < ? OR (s.updated_at = ? AND s.swiper_id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:         last.SwiperID,
			UnixMillis: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// CountLikers returns how many profiles liked the given target.
//
// Behavior:
//   - Counts only swipes where target_id = X and liked = true.
//   - Excludes profiles that the target explicitly passed.
//   - Used in conjunction with the Redis cache (DB is fallback).
func (r *SwipeRepository) CountLikers(
	ctx context.Context,
	targetID string,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.liked = true", targetID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.swiper_id = ?
				  AND s2.target_id = s.swiper_id
				  AND s2.liked = false
			)`, targetID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
