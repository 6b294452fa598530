package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/streammatch/internal/db"
	svcErr "github.com/oggyb/streammatch/internal/errors"
	"github.com/oggyb/streammatch/internal/utils/pagination"
)

// MatchRepository provides data access methods for the Match model.
// It owns the one nontrivial correctness contract in the system: exactly one
// match row per unordered pair of profiles, no matter which participant's
// session creates it or how their writes interleave.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CanonicalPair collapses an unordered pair of profile ids into its canonical
// storage order: the lexicographically smaller id first. Both participants'
// independent EnsureMatch calls therefore target the same logical row, and
// lookups are plain equality instead of an OR over both orderings.
func CanonicalPair(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}

// EnsureMatch creates the match row for the unordered pair {a, b} if it does
// not already exist and returns the canonical row. Safe to call repeatedly
// and concurrently from both participants' sessions: every caller observes
// the same single durable row.
//
// Algorithm:
//  1. canonicalize the pair;
//  2. idempotent read — if the row exists this call is a no-op;
//  3. insert with ON CONFLICT DO NOTHING on (user_lo, user_hi); zero rows
//     affected means the peer's concurrent call won the race, which is
//     success, not an error;
//  4. any other insert failure falls back to a transactional
//     create-if-absent (locked read + insert in one transaction);
//  5. post-condition: whichever path ran, the canonical row must now be
//     readable; if it is not, report ErrMatchCreationFailed instead of a
//     false success.
func (r *MatchRepository) EnsureMatch(ctx context.Context, a, b string) (*db.Match, error) {
	if a == b {
		return nil, svcErr.ErrSelfSwipe
	}
	lo, hi := CanonicalPair(a, b)

	existing, err := r.GetByPair(ctx, lo, hi)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", svcErr.ErrMatchCreationFailed, err)
	}

	match := db.Match{
		ID:     uuid.NewString(),
		UserLo: lo,
		UserHi: hi,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_lo"}, {Name: "user_hi"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		// Dialect or driver rejected the idempotent insert; run the
		// check-and-insert atomically server-side instead.
		if txErr := r.createIfAbsentTx(ctx, lo, hi); txErr != nil {
			return nil, fmt.Errorf("%w: %v", svcErr.ErrMatchCreationFailed, txErr)
		}
	}
	// res.RowsAffected == 0 → the peer's insert won; fall through to read it.

	out, err := r.GetByPair(ctx, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", svcErr.ErrMatchCreationFailed, err)
	}
	return out, nil
}

// createIfAbsentTx performs the existence check and insert as a single
// transaction. Equivalent of a server-side create_match stored procedure.
func (r *MatchRepository) createIfAbsentTx(ctx context.Context, lo, hi string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing db.Match
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_lo = ? AND user_hi = ?", lo, hi).
			First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&db.Match{
			ID:     uuid.NewString(),
			UserLo: lo,
			UserHi: hi,
		}).Error
	})
}

// GetByPair returns the canonical match row for (lo, hi).
// Callers must pass an already-canonicalized pair.
func (r *MatchRepository) GetByPair(ctx context.Context, lo, hi string) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_lo = ? AND user_hi = ?", lo, hi).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetByID returns a match by synthetic id, restricted to its participants.
func (r *MatchRepository) GetByID(ctx context.Context, id, userID string) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("id = ? AND (user_lo = ? OR user_hi = ?)", id, userID, userID).
		First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// MatchWithProfile pairs a match row with the counterpart's profile, the
// shape the matches screen renders.
type MatchWithProfile struct {
	Match   db.Match
	Profile *db.Profile // nil when the counterpart profile row is missing
}

// ListForUser returns the user's matches, newest first, each with the other
// participant's profile attached. Cursor-paginated on (created_at, id).
func (r *MatchRepository) ListForUser(
	ctx context.Context,
	userID string,
	paginationToken *string,
	limit int,
) ([]MatchWithProfile, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("user_lo = ? OR user_hi = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if !cursor.Empty() {
		ts := time.UnixMilli(cursor.UnixMillis)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	var matches []db.Match
	if err := query.Find(&matches).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(matches) > limit {
		last := matches[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:         last.ID,
			UnixMillis: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		matches = matches[:limit]
	}

	// one query for all counterpart profiles instead of one per match
	otherIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		otherIDs = append(otherIDs, m.Other(userID))
	}

	profilesByID := map[string]*db.Profile{}
	if len(otherIDs) > 0 {
		var profiles []db.Profile
		if err := r.db.WithContext(ctx).Where("id IN ?", otherIDs).Find(&profiles).Error; err != nil {
			return nil, nil, err
		}
		for i := range profiles {
			profilesByID[profiles[i].ID] = &profiles[i]
		}
	}

	out := make([]MatchWithProfile, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchWithProfile{
			Match:   m,
			Profile: profilesByID[m.Other(userID)],
		})
	}
	return out, nextToken, nil
}
