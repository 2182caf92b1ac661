package models

import (
	"time"

	"gorm.io/gorm"
)

// UserStats is the denormalized per-user aggregate every rule reads. All
// counters except CurrentStreak are monotonically non-decreasing.
type UserStats struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	// Completion counters per dare category
	SweetCompleted      int64 `gorm:"default:0" json:"sweet_completed"`
	PlayfulCompleted    int64 `gorm:"default:0" json:"playful_completed"`
	AdventureCompleted  int64 `gorm:"default:0" json:"adventure_completed"`
	PassionateCompleted int64 `gorm:"default:0" json:"passionate_completed"`
	WildCompleted       int64 `gorm:"default:0" json:"wild_completed"`
	TotalCompleted      int64 `gorm:"default:0" json:"total_completed"`
	TotalPoints         int64 `gorm:"default:0" json:"total_points"`

	// Streak: consecutive local calendar days with at least one completion.
	// LastActiveDay only ever moves forward; late-arriving older events never
	// rewind the streak clock.
	CurrentStreak int    `gorm:"default:0" json:"current_streak"`
	LongestStreak int    `gorm:"default:0" json:"longest_streak"`
	LastActiveDay string `gorm:"default:''" json:"last_active_day"` // "2006-01-02" local

	// Sender
	DaresSent int64 `gorm:"default:0" json:"dares_sent"`

	// Time-of-day windows (local clock)
	LateNightCompleted    int64 `gorm:"default:0" json:"late_night_completed"`    // after 22:00
	EarlyMorningCompleted int64 `gorm:"default:0" json:"early_morning_completed"` // before 08:00
	WeekendCompleted      int64 `gorm:"default:0" json:"weekend_completed"`

	// Speed windows, measured from the user's first completed dare ever
	FirstDareAt       *time.Time `json:"first_dare_at,omitempty"`
	FirstDayLocal     string     `gorm:"default:''" json:"first_day_local"`
	FirstDayCompleted int64      `gorm:"default:0" json:"first_day_completed"`
	Within24hOfFirst  int64      `gorm:"default:0" json:"within_24h_of_first"`
	Within48hOfFirst  int64      `gorm:"default:0" json:"within_48h_of_first"`

	// Behavioral one-shots
	ScreensVisited   int64 `gorm:"default:0" json:"screens_visited"` // distinct screens
	InviteShares     int64 `gorm:"default:0" json:"invite_shares"`
	InviteRegens     int64 `gorm:"default:0" json:"invite_regens"`
	SurpriseDareUsed bool  `gorm:"default:false" json:"surprise_dare_used"`
	MemoryAlbumUsed  bool  `gorm:"default:false" json:"memory_album_used"`
	StreakFreezeUsed bool  `gorm:"default:false" json:"streak_freeze_used"`

	// Competition aggregates, maintained by the competition tracker on close
	CompetitionMonths int64 `gorm:"default:0" json:"competition_months"`
	CompetitionWins   int64 `gorm:"default:0" json:"competition_wins"`
	ConsecutiveWins   int64 `gorm:"default:0" json:"consecutive_wins"`

	Timestamps
}

// CategoryCount returns the completion counter for one dare category.
func (s UserStats) CategoryCount(cat DareCategory) int64 {
	switch cat {
	case DareSweet:
		return s.SweetCompleted
	case DarePlayful:
		return s.PlayfulCompleted
	case DareAdventure:
		return s.AdventureCompleted
	case DarePassionate:
		return s.PassionateCompleted
	case DareWild:
		return s.WildCompleted
	}
	return 0
}

// PartnershipStats is the per-couple aggregate. CombinedPoints is recomputed
// from both partners' totals on every apply, never incremented on its own.
type PartnershipStats struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	PartnershipID string `gorm:"uniqueIndex;not null" json:"partnership_id"`
	UserAID       string `gorm:"index;not null" json:"user_a_id"`
	UserBID       string `gorm:"index;not null" json:"user_b_id"`

	SameDayCompleted int64 `gorm:"default:0" json:"same_day_completed"` // distinct local days both completed
	SyncedCompleted  int64 `gorm:"default:0" json:"synced_completed"`   // completions within 1h of a partner's
	CombinedPoints   int64 `gorm:"default:0" json:"combined_points"`
	DualStreak       bool  `gorm:"default:false" json:"dual_streak"` // both streaks reached 7 at once

	Timestamps
}

// DareCompletion is the append-only completion log, one row per
// dare_completed event. It feeds the partnership same-day and one-hour
// correlation rules.
type DareCompletion struct {
	ID             string       `gorm:"primaryKey;type:uuid" json:"id"`
	EventID        string       `gorm:"uniqueIndex;not null" json:"event_id"`
	ExternalUserID string       `gorm:"index;not null" json:"external_user_id"`
	PartnershipID  *string      `gorm:"index" json:"partnership_id,omitempty"`
	Category       DareCategory `gorm:"not null" json:"category"`
	Points         int64        `gorm:"default:0" json:"points"`
	CompletedAt    time.Time    `gorm:"index;not null" json:"completed_at"`
	LocalDay       string       `gorm:"index;not null" json:"local_day"`

	Timestamps
}

// VisitedScreen dedupes screen visits so ScreensVisited counts distinct
// screens only.
type VisitedScreen struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex:idx_user_screen;not null" json:"external_user_id"`
	ScreenID       string `gorm:"uniqueIndex:idx_user_screen;not null" json:"screen_id"`

	Timestamps
}

// AppScreens is the set of screens the explorer badge requires. The dare app
// registers visits by these IDs.
var AppScreens = []string{
	"home", "dares", "send_dare", "partner", "competition",
	"achievements", "memories", "settings", "profile",
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
