package profile

import (
	"context"
	"time"

	"github.com/oggyb/streammatch/internal/app"
	"github.com/oggyb/streammatch/internal/db"
	"github.com/oggyb/streammatch/internal/repository"
)

// Service exposes profile reads and owner-only writes.
// A profile is created lazily on the owner's first read: identity (the id)
// originates at the external auth provider, everything else starts empty.
type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository
}

// NewProfileService creates a new Profile service with dependencies from AppContext.
func NewProfileService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// Response is the wire shape of a profile. Categories and StreamDays are
// always arrays, never null.
type Response struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Description string    `json:"description,omitempty"`
	TwitchID    string    `json:"twitch_id,omitempty"`
	TwitchURL   string    `json:"twitch_url,omitempty"`
	Categories  []string  `json:"categories"`
	StreamDays  []string  `json:"stream_days"`
	StartTime   string    `json:"start_time,omitempty"`
	EndTime     string    `json:"end_time,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewResponse maps a stored profile to its wire shape.
func NewResponse(p *db.Profile) Response {
	return Response{
		ID:          p.ID,
		Username:    p.Username,
		AvatarURL:   p.AvatarURL,
		Description: p.Description,
		TwitchID:    p.TwitchID,
		TwitchURL:   p.TwitchURL,
		Categories:  p.CategoryList(),
		StreamDays:  p.StreamDayList(),
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		CreatedAt:   p.CreatedAt,
	}
}

// UpdateRequest carries the owner-editable attributes.
type UpdateRequest struct {
	Username    string   `json:"username" binding:"required,min=1,max=64"`
	AvatarURL   string   `json:"avatar_url" binding:"omitempty,url,max=512"`
	Description string   `json:"description" binding:"max=2000"`
	TwitchURL   string   `json:"twitch_url" binding:"omitempty,url,max=255"`
	Categories  []string `json:"categories" binding:"max=10,dive,min=1,max=64"`
	StreamDays  []string `json:"stream_days" binding:"max=7,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime   string   `json:"start_time" binding:"omitempty,timeofday"`
	EndTime     string   `json:"end_time" binding:"omitempty,timeofday"`
}

// GetOrCreate returns the caller's profile, creating a bare row on the first
// call after authentication.
func (s *Service) GetOrCreate(ctx context.Context, id, displayName string) (Response, error) {
	username := displayName
	if username == "" {
		username = "streamer"
	}
	p, err := s.profileRepo.CreateIfAbsent(ctx, &db.Profile{
		ID:       id,
		Username: username,
	})
	if err != nil {
		s.appCtx.Logger.Error("profile create-if-absent failed", "id", id, "err", err)
		return Response{}, err
	}
	return NewResponse(p), nil
}

// Get returns any profile by id.
func (s *Service) Get(ctx context.Context, id string) (Response, error) {
	p, err := s.profileRepo.Get(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return NewResponse(p), nil
}

// Update applies the owner's edits and returns the stored result.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Response, error) {
	p := &db.Profile{
		ID:          id,
		Username:    req.Username,
		AvatarURL:   req.AvatarURL,
		Description: req.Description,
		TwitchURL:   req.TwitchURL,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	p.SetCategoryList(req.Categories)
	p.SetStreamDayList(req.StreamDays)

	out, err := s.profileRepo.Update(ctx, p)
	if err != nil {
		s.appCtx.Logger.Error("profile update failed", "id", id, "err", err)
		return Response{}, err
	}
	return NewResponse(out), nil
}
