package models

import (
	"time"
)

// BadgeCategory is the closed set of badge groupings. Hidden visibility is a
// property of the category, not a separate flag on each definition.
type BadgeCategory string

const (
	CategorySpeed       BadgeCategory = "speed"
	CategorySweet       BadgeCategory = "category_sweet"
	CategoryPlayful     BadgeCategory = "category_playful"
	CategoryAdventure   BadgeCategory = "category_adventure"
	CategoryPassionate  BadgeCategory = "category_passionate"
	CategoryWild        BadgeCategory = "category_wild"
	CategoryMixed       BadgeCategory = "category_mixed"
	CategoryStreak      BadgeCategory = "streak"
	CategoryPartnership BadgeCategory = "partnership"
	CategoryCompetition BadgeCategory = "competition"
	CategoryMilestone   BadgeCategory = "milestone"
	CategorySender      BadgeCategory = "sender"
	CategoryTime        BadgeCategory = "time"
	CategorySpecial     BadgeCategory = "special"
	CategorySecret      BadgeCategory = "secret"
)

// Hidden reports whether badges in this category are concealed until unlocked.
func (c BadgeCategory) Hidden() bool {
	return c == CategorySecret
}

func (c BadgeCategory) Valid() bool {
	switch c {
	case CategorySpeed, CategorySweet, CategoryPlayful, CategoryAdventure,
		CategoryPassionate, CategoryWild, CategoryMixed, CategoryStreak,
		CategoryPartnership, CategoryCompetition, CategoryMilestone,
		CategorySender, CategoryTime, CategorySpecial, CategorySecret:
		return true
	}
	return false
}

// DareCategory is the kind of dare a completion belongs to.
type DareCategory string

const (
	DareSweet      DareCategory = "sweet"
	DarePlayful    DareCategory = "playful"
	DareAdventure  DareCategory = "adventure"
	DarePassionate DareCategory = "passionate"
	DareWild       DareCategory = "wild"
)

// DareCategories lists every dare category, in display order.
var DareCategories = []DareCategory{
	DareSweet, DarePlayful, DareAdventure, DarePassionate, DareWild,
}

func (c DareCategory) Valid() bool {
	switch c {
	case DareSweet, DarePlayful, DareAdventure, DarePassionate, DareWild:
		return true
	}
	return false
}

// BadgeDefinition is one entry of the static catalog. Definitions are built
// once at startup and never mutated; they are plain values, not DB rows.
type BadgeDefinition struct {
	ID          string        `json:"id"`
	Glyph       string        `json:"glyph"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    BadgeCategory `json:"category"`
	Threshold   int64         `json:"threshold"`
}

// Hidden mirrors the category's visibility for presentation layers.
func (d BadgeDefinition) Hidden() bool {
	return d.Category.Hidden()
}

// BadgeUnlock is the ledger row: one badge unlocked by one user. The unique
// index on (external_user_id, badge_id) backs the at-most-once invariant.
type BadgeUnlock struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex:idx_user_badge;not null" json:"external_user_id"`
	BadgeID        string    `gorm:"uniqueIndex:idx_user_badge;not null" json:"badge_id"`
	UnlockedAt     time.Time `gorm:"not null" json:"unlocked_at"`
	Notified       bool      `gorm:"default:false;index" json:"notified"`

	Timestamps
}

// BadgeArtwork stores the uploaded glyph artwork URL for a badge. Kept apart
// from BadgeDefinition so the catalog itself stays immutable.
type BadgeArtwork struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	BadgeID    string    `gorm:"uniqueIndex;not null" json:"badge_id"`
	ArtworkURL string    `gorm:"type:text;not null" json:"artwork_url"`
	UploadedAt time.Time `json:"uploaded_at"`

	Timestamps
}
