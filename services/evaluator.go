package services

import (
	"dare-achievement-system/models"
)

// EvalContext carries everything a rule may inspect: the user snapshot, the
// couple snapshot when the user is linked, the competition outcome when the
// trigger is a month close, and the triggering event itself. Evaluation is a
// pure function of this value: no DB access and no clock reads.
type EvalContext struct {
	User        models.UserStats
	Partnership *models.PartnershipStats
	Outcome     *models.CompetitionOutcome
	Event       models.ActivityEvent
}

type ruleFunc func(def models.BadgeDefinition, ctx EvalContext) bool

// rules maps each badge category to its evaluator. Adding a badge of an
// existing category needs no new code here; a new category needs one entry.
var rules = map[models.BadgeCategory]ruleFunc{
	models.CategorySpeed:       evalSpeed,
	models.CategorySweet:       evalCategoryTotal(models.DareSweet),
	models.CategoryPlayful:     evalCategoryTotal(models.DarePlayful),
	models.CategoryAdventure:   evalCategoryTotal(models.DareAdventure),
	models.CategoryPassionate:  evalCategoryTotal(models.DarePassionate),
	models.CategoryWild:        evalCategoryTotal(models.DareWild),
	models.CategoryMixed:       evalMixed,
	models.CategoryStreak:      evalStreak,
	models.CategoryPartnership: evalPartnership,
	models.CategoryCompetition: evalCompetition,
	models.CategoryMilestone:   evalMilestone,
	models.CategorySender:      evalSender,
	models.CategoryTime:        evalTime,
	models.CategorySpecial:     evalSpecial,
	models.CategorySecret:      evalSecret,
}

// Evaluate returns every badge whose condition holds as of this call,
// regardless of prior unlock status; filtering already-unlocked badges is
// the ledger's job. The result is unordered.
func Evaluate(catalog *Catalog, ctx EvalContext) []string {
	var satisfied []string
	for _, def := range catalog.All() {
		rule, ok := rules[def.Category]
		if !ok {
			continue
		}
		if rule(def, ctx) {
			satisfied = append(satisfied, def.ID)
		}
	}
	return satisfied
}

func evalSpeed(def models.BadgeDefinition, ctx EvalContext) bool {
	switch def.ID {
	case "first_spark":
		return ctx.User.FirstDayCompleted >= def.Threshold
	case "quick_fire":
		return ctx.User.Within24hOfFirst >= def.Threshold
	case "off_the_blocks":
		return ctx.User.Within48hOfFirst >= def.Threshold
	}
	return false
}

func evalCategoryTotal(cat models.DareCategory) ruleFunc {
	return func(def models.BadgeDefinition, ctx EvalContext) bool {
		return ctx.User.CategoryCount(cat) >= def.Threshold
	}
}

func evalMixed(def models.BadgeDefinition, ctx EvalContext) bool {
	for _, cat := range models.DareCategories {
		if ctx.User.CategoryCount(cat) < def.Threshold {
			return false
		}
	}
	return true
}

func evalStreak(def models.BadgeDefinition, ctx EvalContext) bool {
	return int64(ctx.User.CurrentStreak) >= def.Threshold
}

func evalPartnership(def models.BadgeDefinition, ctx EvalContext) bool {
	if ctx.Partnership == nil {
		return false
	}
	switch def.ID {
	case "in_sync":
		return ctx.Partnership.SameDayCompleted >= def.Threshold
	case "heartbeat":
		return ctx.Partnership.SyncedCompleted >= def.Threshold
	case "power_couple":
		return ctx.Partnership.CombinedPoints >= def.Threshold
	case "twin_flames":
		return ctx.Partnership.DualStreak
	}
	return false
}

// evalCompetition only fires on month-close triggers; outside of those the
// outcome is nil and every competition badge stays unsatisfied.
func evalCompetition(def models.BadgeDefinition, ctx EvalContext) bool {
	out := ctx.Outcome
	if out == nil {
		return false
	}
	switch def.ID {
	case "first_crown":
		return out.TotalWins >= def.Threshold
	case "hat_trick":
		return out.ConsecutiveWins >= def.Threshold
	case "photo_finish":
		return out.Tie
	case "comeback_kid":
		return out.Won && out.Comeback
	case "wire_to_wire":
		return out.Won && out.LedEntireMonth
	case "buzzer_beater":
		return out.Won && out.FinalDayTakeover
	case "landslide":
		return out.Won && !out.Tie && out.Margin >= def.Threshold
	case "season_regular":
		return out.MonthsParticipated >= def.Threshold
	}
	return false
}

func evalMilestone(def models.BadgeDefinition, ctx EvalContext) bool {
	return ctx.User.TotalPoints >= def.Threshold
}

func evalSender(def models.BadgeDefinition, ctx EvalContext) bool {
	return ctx.User.DaresSent >= def.Threshold
}

func evalTime(def models.BadgeDefinition, ctx EvalContext) bool {
	switch def.ID {
	case "night_owl":
		return ctx.User.LateNightCompleted >= def.Threshold
	case "early_bird":
		return ctx.User.EarlyMorningCompleted >= def.Threshold
	case "weekend_warrior":
		return ctx.User.WeekendCompleted >= def.Threshold
	}
	return false
}

func evalSpecial(def models.BadgeDefinition, ctx EvalContext) bool {
	switch def.ID {
	case "explorer":
		return ctx.User.ScreensVisited >= def.Threshold
	case "matchmaker":
		return ctx.User.InviteShares >= def.Threshold
	case "streak_saver":
		return ctx.User.StreakFreezeUsed
	}
	return false
}

func evalSecret(def models.BadgeDefinition, ctx EvalContext) bool {
	switch def.ID {
	case "clean_slate":
		return ctx.User.InviteRegens >= def.Threshold
	case "secret_admirer":
		return ctx.User.SurpriseDareUsed
	case "archivist":
		return ctx.User.MemoryAlbumUsed
	}
	return false
}

// metricFor returns the current value of the metric a badge tracks, for the
// progress endpoint. One-shot behavioral badges report 0 or their threshold.
func metricFor(def models.BadgeDefinition, ctx EvalContext) int64 {
	boolMetric := func(b bool) int64 {
		if b {
			return def.Threshold
		}
		return 0
	}

	switch def.Category {
	case models.CategorySpeed:
		switch def.ID {
		case "first_spark":
			return ctx.User.FirstDayCompleted
		case "quick_fire":
			return ctx.User.Within24hOfFirst
		case "off_the_blocks":
			return ctx.User.Within48hOfFirst
		}
	case models.CategorySweet:
		return ctx.User.SweetCompleted
	case models.CategoryPlayful:
		return ctx.User.PlayfulCompleted
	case models.CategoryAdventure:
		return ctx.User.AdventureCompleted
	case models.CategoryPassionate:
		return ctx.User.PassionateCompleted
	case models.CategoryWild:
		return ctx.User.WildCompleted
	case models.CategoryMixed:
		// Progress toward all_rounder is the weakest category.
		min := ctx.User.CategoryCount(models.DareCategories[0])
		for _, cat := range models.DareCategories[1:] {
			if n := ctx.User.CategoryCount(cat); n < min {
				min = n
			}
		}
		return min
	case models.CategoryStreak:
		return int64(ctx.User.CurrentStreak)
	case models.CategoryPartnership:
		if ctx.Partnership == nil {
			return 0
		}
		switch def.ID {
		case "in_sync":
			return ctx.Partnership.SameDayCompleted
		case "heartbeat":
			return ctx.Partnership.SyncedCompleted
		case "power_couple":
			return ctx.Partnership.CombinedPoints
		case "twin_flames":
			return boolMetric(ctx.Partnership.DualStreak)
		}
	case models.CategoryCompetition:
		switch def.ID {
		case "first_crown", "hat_trick":
			if def.ID == "hat_trick" {
				return ctx.User.ConsecutiveWins
			}
			return ctx.User.CompetitionWins
		case "season_regular":
			return ctx.User.CompetitionMonths
		default:
			// One-shot outcome flags have no meaningful partial progress.
			return 0
		}
	case models.CategoryMilestone:
		return ctx.User.TotalPoints
	case models.CategorySender:
		return ctx.User.DaresSent
	case models.CategoryTime:
		switch def.ID {
		case "night_owl":
			return ctx.User.LateNightCompleted
		case "early_bird":
			return ctx.User.EarlyMorningCompleted
		case "weekend_warrior":
			return ctx.User.WeekendCompleted
		}
	case models.CategorySpecial:
		switch def.ID {
		case "explorer":
			return ctx.User.ScreensVisited
		case "matchmaker":
			return ctx.User.InviteShares
		case "streak_saver":
			return boolMetric(ctx.User.StreakFreezeUsed)
		}
	case models.CategorySecret:
		switch def.ID {
		case "clean_slate":
			return ctx.User.InviteRegens
		case "secret_admirer":
			return boolMetric(ctx.User.SurpriseDareUsed)
		case "archivist":
			return boolMetric(ctx.User.MemoryAlbumUsed)
		}
	}
	return 0
}
