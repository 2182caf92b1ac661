package services

import (
	"fmt"

	"dare-achievement-system/models"
)

// Catalog is the immutable badge registry. It is built once in main and
// passed explicitly to the engine; there is no package-level catalog state.
type Catalog struct {
	defs []models.BadgeDefinition
	byID map[string]int
}

// NewCatalog validates the definition table and freezes it. Duplicate IDs and
// invalid categories are construction errors, not runtime surprises.
func NewCatalog(defs []models.BadgeDefinition) (*Catalog, error) {
	c := &Catalog{
		defs: make([]models.BadgeDefinition, len(defs)),
		byID: make(map[string]int, len(defs)),
	}
	copy(c.defs, defs)
	for i, d := range c.defs {
		if d.ID == "" {
			return nil, fmt.Errorf("badge at index %d has empty ID", i)
		}
		if !d.Category.Valid() {
			return nil, fmt.Errorf("badge %s has invalid category %q", d.ID, d.Category)
		}
		if _, exists := c.byID[d.ID]; exists {
			return nil, fmt.Errorf("duplicate badge ID %s", d.ID)
		}
		c.byID[d.ID] = i
	}
	return c, nil
}

// DefaultCatalog builds the full production catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultBadges)
	if err != nil {
		// defaultBadges is static; an error here is a programming bug.
		panic(err)
	}
	return c
}

// Lookup returns the definition for id.
func (c *Catalog) Lookup(id string) (models.BadgeDefinition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.BadgeDefinition{}, false
	}
	return c.defs[i], true
}

// All returns every definition in insertion order. Hidden badges are
// included; concealing them before unlock is the presentation layer's job.
func (c *Catalog) All() []models.BadgeDefinition {
	out := make([]models.BadgeDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// ByCategory returns the definitions of one category, insertion order kept.
func (c *Catalog) ByCategory(cat models.BadgeCategory) []models.BadgeDefinition {
	var out []models.BadgeDefinition
	for _, d := range c.defs {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the catalog size.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// defaultBadges is the static catalog table. IDs are stable slugs; thresholds
// are the magnitude the triggering metric must reach.
var defaultBadges = []models.BadgeDefinition{
	// Speed: windows measured from the user's first completed dare
	{ID: "first_spark", Glyph: "✨", Name: "First Spark", Description: "Complete a dare on your very first day", Category: models.CategorySpeed, Threshold: 1},
	{ID: "quick_fire", Glyph: "⚡", Name: "Quick Fire", Description: "Complete 3 dares within 24 hours of your first", Category: models.CategorySpeed, Threshold: 3},
	{ID: "off_the_blocks", Glyph: "🏃", Name: "Off the Blocks", Description: "Complete 5 dares within your first 2 days", Category: models.CategorySpeed, Threshold: 5},

	// Sweet
	{ID: "sweet_start", Glyph: "🍬", Name: "Sweet Start", Description: "Complete 5 sweet dares", Category: models.CategorySweet, Threshold: 5},
	{ID: "sweet_tooth", Glyph: "🧁", Name: "Sweet Tooth", Description: "Complete 25 sweet dares", Category: models.CategorySweet, Threshold: 25},

	// Playful
	{ID: "playful_pup", Glyph: "🐶", Name: "Playful Pup", Description: "Complete 5 playful dares", Category: models.CategoryPlayful, Threshold: 5},
	{ID: "prankster", Glyph: "🃏", Name: "Prankster", Description: "Complete 25 playful dares", Category: models.CategoryPlayful, Threshold: 25},

	// Adventure
	{ID: "fresh_air", Glyph: "🧭", Name: "Fresh Air", Description: "Complete 5 adventure dares", Category: models.CategoryAdventure, Threshold: 5},
	{ID: "trailblazer", Glyph: "⛰️", Name: "Trailblazer", Description: "Complete 25 adventure dares", Category: models.CategoryAdventure, Threshold: 25},

	// Passionate
	{ID: "slow_burn", Glyph: "🕯️", Name: "Slow Burn", Description: "Complete 5 passionate dares", Category: models.CategoryPassionate, Threshold: 5},
	{ID: "heartthrob", Glyph: "💘", Name: "Heartthrob", Description: "Complete 25 passionate dares", Category: models.CategoryPassionate, Threshold: 25},

	// Wild
	{ID: "wild_card", Glyph: "🎲", Name: "Wild Card", Description: "Complete 5 wild dares", Category: models.CategoryWild, Threshold: 5},
	{ID: "untamed", Glyph: "🔥", Name: "Untamed", Description: "Complete 25 wild dares", Category: models.CategoryWild, Threshold: 25},

	// Mixed: every category at once
	{ID: "all_rounder", Glyph: "🌈", Name: "All-Rounder", Description: "Complete 5 dares in every category", Category: models.CategoryMixed, Threshold: 5},

	// Streak
	{ID: "warm_streak", Glyph: "🌡️", Name: "Warm Streak", Description: "Keep a 3-day dare streak", Category: models.CategoryStreak, Threshold: 3},
	{ID: "week_of_fire", Glyph: "🔥", Name: "Week of Fire", Description: "Keep a 7-day dare streak", Category: models.CategoryStreak, Threshold: 7},
	{ID: "monthly_devotion", Glyph: "📅", Name: "Monthly Devotion", Description: "Keep a 30-day dare streak", Category: models.CategoryStreak, Threshold: 30},
	{ID: "eternal_flame", Glyph: "🕯️", Name: "Eternal Flame", Description: "Keep a 100-day dare streak", Category: models.CategoryStreak, Threshold: 100},

	// Partnership
	{ID: "in_sync", Glyph: "🤝", Name: "In Sync", Description: "Complete dares on the same day as your partner 10 times", Category: models.CategoryPartnership, Threshold: 10},
	{ID: "heartbeat", Glyph: "💓", Name: "Heartbeat", Description: "Complete 5 dares within an hour of your partner", Category: models.CategoryPartnership, Threshold: 5},
	{ID: "power_couple", Glyph: "👑", Name: "Power Couple", Description: "Reach 1000 combined points with your partner", Category: models.CategoryPartnership, Threshold: 1000},
	{ID: "twin_flames", Glyph: "🔥", Name: "Twin Flames", Description: "Hold a 7-day streak at the same time as your partner", Category: models.CategoryPartnership, Threshold: 7},

	// Competition
	{ID: "first_crown", Glyph: "🥇", Name: "First Crown", Description: "Win a monthly competition", Category: models.CategoryCompetition, Threshold: 1},
	{ID: "hat_trick", Glyph: "🎩", Name: "Hat Trick", Description: "Win 3 monthly competitions in a row", Category: models.CategoryCompetition, Threshold: 3},
	{ID: "photo_finish", Glyph: "📸", Name: "Photo Finish", Description: "Tie a monthly competition to the exact point", Category: models.CategoryCompetition, Threshold: 1},
	{ID: "comeback_kid", Glyph: "🪃", Name: "Comeback Kid", Description: "Win a month after trailing by 50 points", Category: models.CategoryCompetition, Threshold: 50},
	{ID: "wire_to_wire", Glyph: "🚥", Name: "Wire to Wire", Description: "Lead a monthly competition from start to finish", Category: models.CategoryCompetition, Threshold: 1},
	{ID: "buzzer_beater", Glyph: "⏰", Name: "Buzzer Beater", Description: "Take the lead on the final day and win", Category: models.CategoryCompetition, Threshold: 1},
	{ID: "landslide", Glyph: "🌊", Name: "Landslide", Description: "Win a month by 200 points or more", Category: models.CategoryCompetition, Threshold: 200},
	{ID: "season_regular", Glyph: "🗓️", Name: "Season Regular", Description: "Take part in 6 monthly competitions", Category: models.CategoryCompetition, Threshold: 6},

	// Milestone: lifetime points
	{ID: "first_hundred", Glyph: "💯", Name: "First Hundred", Description: "Earn 100 points", Category: models.CategoryMilestone, Threshold: 100},
	{ID: "point_collector", Glyph: "🪙", Name: "Point Collector", Description: "Earn 500 points", Category: models.CategoryMilestone, Threshold: 500},
	{ID: "point_hoarder", Glyph: "💰", Name: "Point Hoarder", Description: "Earn 2500 points", Category: models.CategoryMilestone, Threshold: 2500},
	{ID: "point_legend", Glyph: "🏆", Name: "Point Legend", Description: "Earn 10000 points", Category: models.CategoryMilestone, Threshold: 10000},

	// Sender
	{ID: "dare_starter", Glyph: "✉️", Name: "Dare Starter", Description: "Send your first dare", Category: models.CategorySender, Threshold: 1},
	{ID: "instigator", Glyph: "😈", Name: "Instigator", Description: "Send 25 dares", Category: models.CategorySender, Threshold: 25},
	{ID: "puppet_master", Glyph: "🎭", Name: "Puppet Master", Description: "Send 100 dares", Category: models.CategorySender, Threshold: 100},

	// Time windows
	{ID: "night_owl", Glyph: "🦉", Name: "Night Owl", Description: "Complete 10 dares after 10 PM", Category: models.CategoryTime, Threshold: 10},
	{ID: "early_bird", Glyph: "🐦", Name: "Early Bird", Description: "Complete 10 dares before 8 AM", Category: models.CategoryTime, Threshold: 10},
	{ID: "weekend_warrior", Glyph: "🛡️", Name: "Weekend Warrior", Description: "Complete 20 dares on weekends", Category: models.CategoryTime, Threshold: 20},

	// Special
	{ID: "explorer", Glyph: "🗺️", Name: "Explorer", Description: "Visit every screen in the app", Category: models.CategorySpecial, Threshold: int64(len(models.AppScreens))},
	{ID: "matchmaker", Glyph: "💌", Name: "Matchmaker", Description: "Share your invite code 3 times", Category: models.CategorySpecial, Threshold: 3},
	{ID: "streak_saver", Glyph: "🧊", Name: "Streak Saver", Description: "Use a streak freeze", Category: models.CategorySpecial, Threshold: 1},

	// Secret: concealed until unlocked
	{ID: "clean_slate", Glyph: "🔄", Name: "Clean Slate", Description: "Regenerate your invite code", Category: models.CategorySecret, Threshold: 1},
	{ID: "secret_admirer", Glyph: "🤫", Name: "Secret Admirer", Description: "Send a surprise dare", Category: models.CategorySecret, Threshold: 1},
	{ID: "archivist", Glyph: "📔", Name: "Archivist", Description: "Open the memory album", Category: models.CategorySecret, Threshold: 1},
}
