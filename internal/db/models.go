package db

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Profile table. One row per registered streamer.
//
// The id is the uuid minted by the external auth provider on first login and
// is immutable; everything else is owner-editable.
//
// Categories and StreamDays are stored as JSON string arrays. Use the
// *List/Set*List helpers instead of touching the raw columns: they are the
// single normalization point that turns NULL/invalid JSON into an empty
// slice, so the rest of the code never sees a nil list.
type Profile struct {
	ID          string         `gorm:"primaryKey;size:36"`
	Username    string         `gorm:"size:64;not null"`
	AvatarURL   string         `gorm:"size:512"`
	Description string         `gorm:"type:text"`
	TwitchID    string         `gorm:"size:64"`
	TwitchURL   string         `gorm:"size:255"`
	Categories  datatypes.JSON `gorm:"type:json"`
	StreamDays  datatypes.JSON `gorm:"type:json"`
	StartTime   string         `gorm:"size:8"`
	EndTime     string         `gorm:"size:8"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

// CategoryList returns the content categories, never nil.
func (p *Profile) CategoryList() []string { return decodeStringList(p.Categories) }

// StreamDayList returns the scheduled streaming days, never nil.
func (p *Profile) StreamDayList() []string { return decodeStringList(p.StreamDays) }

func (p *Profile) SetCategoryList(v []string) { p.Categories = encodeStringList(v) }

func (p *Profile) SetStreamDayList(v []string) { p.StreamDays = encodeStringList(v) }

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func encodeStringList(v []string) datatypes.JSON {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}

// Swipe represents a swiper's like/pass decision on a target.
//
// Composite PK: (SwiperID, TargetID)
//   - Ensures a single row per ordered pair (overwrite guarantee): re-swiping
//     the same target updates the existing decision instead of accumulating
//     duplicates.
//
// Indexes:
//   - idx_target_liked_updated_swiper(target_id, liked, updated_at DESC, swiper_id)
//     Optimizes "who liked me" lists with pagination.
//   - idx_swiper_target_liked(swiper_id, target_id, liked)
//     Optimizes O(1) lookup for reciprocity checks.
type Swipe struct {
	SwiperID  string    `gorm:"primaryKey;size:36;index:idx_swiper_target_liked,priority:1"`
	TargetID  string    `gorm:"primaryKey;size:36;index:idx_target_liked_updated_swiper,priority:1;index:idx_swiper_target_liked,priority:2"`
	Liked     bool      `gorm:"not null;index:idx_target_liked_updated_swiper,priority:2;index:idx_swiper_target_liked,priority:3"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index:idx_target_liked_updated_swiper,priority:3,sort:desc"`
}

// Match is the durable record that two streamers reciprocally liked each
// other. Exactly one row exists per unordered pair.
//
// Canonical ordering: UserLo holds the lexicographically smaller profile id,
// UserHi the larger one. Both participants' sessions therefore target the
// same row, and the unique index on (user_lo, user_hi) is what arbitrates
// the two-sessions-swipe-at-once race.
type Match struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserLo    string    `gorm:"size:36;not null;uniqueIndex:idx_match_pair,priority:1"`
	UserHi    string    `gorm:"size:36;not null;uniqueIndex:idx_match_pair,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Other returns the counterpart of userID in the match. Returns "" when
// userID is not a participant.
func (m *Match) Other(userID string) string {
	switch userID {
	case m.UserLo:
		return m.UserHi
	case m.UserHi:
		return m.UserLo
	}
	return ""
}
