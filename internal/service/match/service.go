package match

import (
	"context"
	"time"

	"github.com/oggyb/streammatch/internal/app"
	"github.com/oggyb/streammatch/internal/repository"
	"github.com/oggyb/streammatch/internal/service/profile"
)

const matchesPageSize = 20

// Service serves the matches screen: durable reciprocal pairs with the
// counterpart's profile attached. Match rows are materialized by the swipe
// pipeline; this service only reads them.
type Service struct {
	appCtx      *app.AppContext
	matchRepo   *repository.MatchRepository
	profileRepo *repository.ProfileRepository
}

// NewMatchService creates a new Match service with dependencies from AppContext.
func NewMatchService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// Item is one entry of the matches listing.
type Item struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Profile   *profile.Response `json:"profile,omitempty"`
}

// List returns the caller's matches, newest first, cursor-paginated.
func (s *Service) List(ctx context.Context, userID string, paginationToken *string) ([]Item, *string, error) {
	s.appCtx.Logger.Debug("ListMatches called", "user", userID)

	rows, nextToken, err := s.matchRepo.ListForUser(ctx, userID, paginationToken, matchesPageSize)
	if err != nil {
		s.appCtx.Logger.Error("ListForUser failed", "user", userID, "err", err)
		return nil, nil, err
	}

	out := make([]Item, 0, len(rows))
	for _, row := range rows {
		item := Item{ID: row.Match.ID, CreatedAt: row.Match.CreatedAt}
		if row.Profile != nil {
			p := profile.NewResponse(row.Profile)
			item.Profile = &p
		}
		out = append(out, item)
	}
	return out, nextToken, nil
}

// Get returns a single match by id, restricted to its participants.
func (s *Service) Get(ctx context.Context, id, userID string) (Item, error) {
	m, err := s.matchRepo.GetByID(ctx, id, userID)
	if err != nil {
		return Item{}, err
	}

	item := Item{ID: m.ID, CreatedAt: m.CreatedAt}
	if p, err := s.profileRepo.Get(ctx, m.Other(userID)); err == nil {
		resp := profile.NewResponse(p)
		item.Profile = &resp
	}
	return item, nil
}
