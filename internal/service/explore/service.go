package explore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oggyb/streammatch/internal/app"
	"github.com/oggyb/streammatch/internal/db"
	svcErr "github.com/oggyb/streammatch/internal/errors"
	"github.com/oggyb/streammatch/internal/repository"
	"github.com/oggyb/streammatch/internal/service/profile"
)

// Swipe directions on the wire. Stored as a boolean: right = liked.
const (
	DirectionRight = "right"
	DirectionLeft  = "left"
)

const (
	likersPageSize    = 5
	candidatePageSize = 20
)

// Service implements the discovery surface: the candidate feed, the swipe
// pipeline (record decision → reciprocity check → match creation) and the
// liked-you listings with their cached counter.
type Service struct {
	appCtx      *app.AppContext
	swipeRepo   *repository.SwipeRepository
	matchRepo   *repository.MatchRepository
	profileRepo *repository.ProfileRepository
}

// NewExploreService creates a new Explore service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via the swipe/match/profile repositories)
//   - RedisCache for counters from AppContext
func NewExploreService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		swipeRepo:   repository.NewSwipeRepository(appCtx.DB),
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// SwipeResult reports the outcome of one swipe. Match and MatchedProfile are
// set only when the swipe completed a reciprocal pair.
type SwipeResult struct {
	Matched        bool
	Match          *db.Match
	MatchedProfile *db.Profile
}

// PutSwipe runs the full swipe pipeline for swiper → target.
//
// Behavior:
//   - Records the decision (upsert, one row per ordered pair). On storage
//     failure the flow stops: the reciprocity check is never run against an
//     unrecorded swipe.
//   - Updates the target's cached like count (+1/-1, best effort).
//   - On a right swipe, checks whether the target already liked the swiper.
//     A failed check is surfaced as indeterminate, never treated as "no".
//   - On reciprocity, ensures the canonical match row exists. The swipe row
//     stays recorded even if match creation fails; swipes are independently
//     valid facts.
//
// Example:
//
//	svc.PutSwipe(ctx, "a3f…", "b71…", true)
func (s *Service) PutSwipe(ctx context.Context, swiperID, targetID string, liked bool) (*SwipeResult, error) {
	s.appCtx.Logger.Debug(
		"PutSwipe called",
		"swiper", swiperID,
		"target", targetID,
		"liked", liked,
	)

	if swiperID == targetID {
		return nil, svcErr.ErrSelfSwipe
	}

	if err := s.swipeRepo.RecordSwipe(ctx, swiperID, targetID, liked); err != nil {
		s.appCtx.Logger.Error("RecordSwipe failed", "swiper", swiperID, "target", targetID, "err", err)
		return nil, fmt.Errorf("%w: %v", svcErr.ErrSwipeRecordingFailed, err)
	}

	// update cache. A re-swipe in the same direction drifts the counter
	// until the TTL expires and CountLikedYou reloads it from the DB.
	key := s.appCtx.RedisCache.KeyForLikeCount(targetID)
	if liked {
		_, _ = s.appCtx.RedisCache.Incr(ctx, key) // like count +1
	} else {
		_, _ = s.appCtx.RedisCache.Decr(ctx, key) // like count -1
	}
	_ = s.appCtx.RedisCache.Client.Expire(ctx, key, time.Hour).Err() // refresh TTL

	if !liked {
		return &SwipeResult{}, nil
	}

	reciprocated, err := s.swipeRepo.HasReciprocated(ctx, targetID, swiperID)
	if err != nil {
		s.appCtx.Logger.Error("HasReciprocated failed", "swiper", swiperID, "target", targetID, "err", err)
		return nil, fmt.Errorf("%w: %v", svcErr.ErrReciprocityCheckFailed, err)
	}
	if !reciprocated {
		return &SwipeResult{}, nil
	}

	match, err := s.matchRepo.EnsureMatch(ctx, swiperID, targetID)
	if err != nil {
		s.appCtx.Logger.Error("EnsureMatch failed", "swiper", swiperID, "target", targetID, "err", err)
		return nil, err
	}

	result := &SwipeResult{Matched: true, Match: match}
	if p, err := s.profileRepo.Get(ctx, targetID); err == nil {
		result.MatchedProfile = p
	} else if !errors.Is(err, svcErr.ErrProfileNotFound) {
		s.appCtx.Logger.Warn("matched profile fetch failed", "target", targetID, "err", err)
	}

	s.appCtx.Logger.Info("mutual like", "match_id", match.ID, "user_lo", match.UserLo, "user_hi", match.UserHi)
	return result, nil
}

// Explore returns candidate profiles for the viewer: everyone except the
// viewer and targets already decided on.
func (s *Service) Explore(ctx context.Context, viewerID string) ([]profile.Response, error) {
	s.appCtx.Logger.Debug("Explore called", "viewer", viewerID)

	candidates, err := s.profileRepo.ListCandidates(ctx, viewerID, candidatePageSize)
	if err != nil {
		s.appCtx.Logger.Error("ListCandidates failed", "viewer", viewerID, "err", err)
		return nil, err
	}

	out := make([]profile.Response, 0, len(candidates))
	for i := range candidates {
		out = append(out, profile.NewResponse(&candidates[i]))
	}
	return out, nil
}

// Liker is one entry of the liked-you listings.
type Liker struct {
	SwiperID      string `json:"swiper_id"`
	UnixTimestamp uint64 `json:"unix_timestamp"`
}

// ListLikedYou returns all profiles who liked the caller.
//
// Behavior:
//   - Fetches likes via repository.GetLikers.
//   - Excludes profiles that the caller explicitly passed.
//   - Supports cursor-based pagination with paginationToken.
func (s *Service) ListLikedYou(ctx context.Context, targetID string, paginationToken *string) ([]Liker, *string, error) {
	s.appCtx.Logger.Debug("ListLikedYou called", "target", targetID)

	swipes, nextToken, err := s.swipeRepo.GetLikers(ctx, targetID, paginationToken, likersPageSize)
	if err != nil {
		s.appCtx.Logger.Error("GetLikers failed", "err", err)
		return nil, nil, err
	}
	return toLikers(swipes), nextToken, nil
}

// ListNewLikedYou returns profiles who liked the caller but have not been
// liked back yet.
func (s *Service) ListNewLikedYou(ctx context.Context, targetID string, paginationToken *string) ([]Liker, *string, error) {
	s.appCtx.Logger.Debug("ListNewLikedYou called", "target", targetID)

	swipes, nextToken, err := s.swipeRepo.GetNewLikers(ctx, targetID, paginationToken, likersPageSize)
	if err != nil {
		return nil, nil, err
	}
	return toLikers(swipes), nextToken, nil
}

// CountLikedYou returns how many profiles liked the caller.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:profileID).
//  2. If cache miss or parse error, falls back to DB via repository.CountLikers.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountLikedYou(ctx context.Context, targetID string) (int64, error) {
	s.appCtx.Logger.Debug("CountLikedYou called", "target", targetID)

	key := s.appCtx.RedisCache.KeyForLikeCount(targetID)

	// try cache first
	if cached, _ := s.appCtx.RedisCache.Get(ctx, key); cached != "" {
		if n, err := strconv.ParseInt(cached, 10, 64); err == nil && n >= 0 {
			// refresh TTL since this user is active
			_ = s.appCtx.RedisCache.Client.Expire(ctx, key, time.Hour).Err()
			return n, nil
		}
	}

	// fallback: DB
	count, err := s.swipeRepo.CountLikers(ctx, targetID)
	if err != nil {
		return 0, err
	}

	// set + TTL refresh
	_ = s.appCtx.RedisCache.Set(ctx, key, strconv.FormatInt(count, 10), time.Hour)

	return count, nil
}

func toLikers(swipes []db.Swipe) []Liker {
	out := make([]Liker, 0, len(swipes))
	for _, sw := range swipes {
		out = append(out, Liker{
			SwiperID:      sw.SwiperID,
			UnixTimestamp: uint64(sw.UpdatedAt.UnixMilli()),
		})
	}
	return out
}
