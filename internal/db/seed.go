package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCategories = [][]string{
	{"fps", "variety"},
	{"rpg", "speedrun"},
	{"mmo", "co-op"},
	{"strategy"},
	{"horror", "variety"},
	{"fighting", "retro"},
	{"simulation", "creative"},
}

var seedDays = [][]string{
	{"monday", "wednesday", "friday"},
	{"tuesday", "thursday"},
	{"saturday", "sunday"},
	{"monday", "tuesday", "wednesday", "thursday", "friday"},
}

// SeedTestData resets the database and populates it with demo streamer
// profiles and swipes.
//
// Behavior:
//  1. Clears existing data in `profiles`, `swipes` and `matches` tables.
//  2. Creates 20 streamer profiles with schedules and categories.
//  3. Generates ~200 swipes with ~70% likes; every 3rd ensures a mutual like
//     and materializes the corresponding canonical match row.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"matches", "swipes", "profiles"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	// --- Seed Profiles ---
	ids := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		p := Profile{
			ID:          uuid.NewString(),
			Username:    fmt.Sprintf("streamer%d", i),
			AvatarURL:   fmt.Sprintf("https://cdn.example.com/avatars/%d.png", i),
			Description: fmt.Sprintf("Streamer %d looking for collab partners", i),
			TwitchID:    fmt.Sprintf("%d", 100000+i),
			TwitchURL:   fmt.Sprintf("https://twitch.tv/streamer%d", i),
			StartTime:   fmt.Sprintf("%02d:00", 16+i%6),
			EndTime:     fmt.Sprintf("%02d:00", 20+i%4),
		}
		p.SetCategoryList(seedCategories[i%len(seedCategories)])
		p.SetStreamDayList(seedDays[i%len(seedDays)])

		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
		ids = append(ids, p.ID)
	}
	log.Println("Seeded 20 profiles.")

	// --- Seed Swipes (~200) ---
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "swiper_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
	}
	counter := 0
	for _, swiperID := range ids {
		for j := 0; j < 12; j++ {
			targetID := ids[r.Intn(len(ids))]
			if swiperID == targetID {
				continue
			}

			// like probability 70%
			liked := r.Intn(100) < 70

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 {
				liked = true
				recip := Swipe{SwiperID: targetID, TargetID: swiperID, Liked: true}
				if err := db.Clauses(upsert).Create(&recip).Error; err != nil {
					return fmt.Errorf("failed to seed swipe: %w", err)
				}
				if err := seedMatch(db, swiperID, targetID); err != nil {
					return err
				}
			}

			swipe := Swipe{SwiperID: swiperID, TargetID: targetID, Liked: liked}
			if err := db.Clauses(upsert).Create(&swipe).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}

			counter++
		}
	}

	return nil
}

// seedMatch materializes the canonical match row for a mutual pair.
func seedMatch(db *gorm.DB, a, b string) error {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	m := Match{ID: uuid.NewString(), UserLo: lo, UserHi: hi}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_lo"}, {Name: "user_hi"}},
		DoNothing: true,
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to seed match: %w", err)
	}
	return nil
}
