package models

import "time"

// Competition month lifecycle.
const (
	MonthOpen   = "open"
	MonthClosed = "closed"
)

// CompetitionMonth is one partnership's point race for one calendar month.
// Open months accrue points from dare completions; closing computes the
// outcome exactly once and is a no-op afterwards.
type CompetitionMonth struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	PartnershipID string `gorm:"uniqueIndex:idx_partnership_month;not null" json:"partnership_id"`
	Month         string `gorm:"uniqueIndex:idx_partnership_month;not null" json:"month"` // "2006-01"
	Status        string `gorm:"default:'open';index" json:"status"`

	UserAID string `gorm:"not null" json:"user_a_id"`
	UserBID string `gorm:"not null" json:"user_b_id"`
	PointsA int64  `gorm:"default:0" json:"points_a"`
	PointsB int64  `gorm:"default:0" json:"points_b"`

	// Outcome, set on close. A tie marks both partners winners and leaves
	// WinnerID empty.
	WinnerID         string     `gorm:"default:''" json:"winner_id"`
	Tie              bool       `gorm:"default:false" json:"tie"`
	Margin           int64      `gorm:"default:0" json:"margin"`
	ComebackWin      bool       `gorm:"default:false" json:"comeback_win"`
	LedEntireMonth   bool       `gorm:"default:false" json:"led_entire_month"`
	FinalDayTakeover bool       `gorm:"default:false" json:"final_day_takeover"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`

	// Lifetime counters as they stood right after this close, per side.
	// A replayed close rebuilds its outcome from these, not from whatever
	// the counters have grown to since.
	SettledMonthsA int64 `gorm:"default:0" json:"settled_months_a"`
	SettledWinsA   int64 `gorm:"default:0" json:"settled_wins_a"`
	SettledStreakA int64 `gorm:"default:0" json:"settled_streak_a"`
	SettledMonthsB int64 `gorm:"default:0" json:"settled_months_b"`
	SettledWinsB   int64 `gorm:"default:0" json:"settled_wins_b"`
	SettledStreakB int64 `gorm:"default:0" json:"settled_streak_b"`

	Timestamps
}

// CompetitionCheckpoint is a point snapshot recorded while a month is open.
// The close computation derives lead and comeback history from these.
type CompetitionCheckpoint struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	MonthID    string    `gorm:"index;not null" json:"month_id"`
	PointsA    int64     `json:"points_a"`
	PointsB    int64     `json:"points_b"`
	RecordedAt time.Time `gorm:"index;not null" json:"recorded_at"`
}

// CompetitionOutcome is the per-user view of a closed month handed to the
// rule evaluator. Plain value, no DB tags.
type CompetitionOutcome struct {
	Month            string `json:"month"`
	Won              bool   `json:"won"`
	Tie              bool   `json:"tie"`
	Margin           int64  `json:"margin"`
	Comeback         bool   `json:"comeback"`
	LedEntireMonth   bool   `json:"led_entire_month"`
	FinalDayTakeover bool   `json:"final_day_takeover"`

	// Lifetime aggregates after this close
	MonthsParticipated int64 `json:"months_participated"`
	TotalWins          int64 `json:"total_wins"`
	ConsecutiveWins    int64 `json:"consecutive_wins"`
}
