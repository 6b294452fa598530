package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/streammatch/internal/db"
	svcErr "github.com/oggyb/streammatch/internal/errors"
)

// ProfileRepository provides data access methods for the Profile model.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Get returns a profile by id.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*db.Profile, error) {
	var profile db.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateIfAbsent inserts the profile on first authentication and is a no-op
// when the row already exists. Returns the stored row in both cases.
func (r *ProfileRepository) CreateIfAbsent(ctx context.Context, profile *db.Profile) (*db.Profile, error) {
	if profile.Categories == nil {
		profile.SetCategoryList(nil)
	}
	if profile.StreamDays == nil {
		profile.SetStreamDayList(nil)
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(profile).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, profile.ID)
}

// Update persists owner-edited profile attributes. The id is immutable and
// never part of the update set.
func (r *ProfileRepository) Update(ctx context.Context, profile *db.Profile) (*db.Profile, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"username":    profile.Username,
			"avatar_url":  profile.AvatarURL,
			"description": profile.Description,
			"twitch_url":  profile.TwitchURL,
			"categories":  profile.Categories,
			"stream_days": profile.StreamDays,
			"start_time":  profile.StartTime,
			"end_time":    profile.EndTime,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, svcErr.ErrProfileNotFound
	}
	return r.Get(ctx, profile.ID)
}

// ListCandidates returns profiles the viewer has not decided on yet, in a
// stable newest-first order: everyone minus the viewer minus already-swiped
// targets.
func (r *ProfileRepository) ListCandidates(
	ctx context.Context,
	viewerID string,
	limit int,
) ([]db.Profile, error) {
	swiped := r.db.
		Table("swipes").
		Select("target_id").
		Where("swiper_id = ?", viewerID)

	var profiles []db.Profile
	err := r.db.WithContext(ctx).
		Where("id <> ?", viewerID).
		Where("id NOT IN (?)", swiped).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
