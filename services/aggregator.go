package services

import (
	"fmt"
	"time"

	"dare-achievement-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatService folds activity events into per-user and per-partnership
// aggregates. Application is all-or-nothing per event: one GORM transaction
// covers the dedup insert and every counter mutation.
type StatService struct {
	DB *gorm.DB
}

func NewStatService(db *gorm.DB) *StatService {
	return &StatService{DB: db}
}

// Apply folds one event in and returns the updated snapshots. The second
// return is nil when the user has no active partnership. Duplicate event IDs
// roll back and surface ErrDuplicateEvent; the engine turns that into an
// empty delta rather than a failure.
func (s *StatService) Apply(event models.ActivityEvent) (*models.UserStats, *models.PartnershipStats, error) {
	if err := ValidateEvent(event); err != nil {
		return nil, nil, err
	}

	var stats *models.UserStats
	var pstats *models.PartnershipStats

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var seen int64
		if err := tx.Model(&models.AppliedEvent{}).Where("event_id = ?", event.ID).Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return ErrDuplicateEvent
		}
		if err := tx.Create(&models.AppliedEvent{
			ID:             uuid.NewString(),
			EventID:        event.ID,
			ExternalUserID: event.UserID,
			Type:           event.Type,
			AppliedAt:      time.Now().UTC(),
		}).Error; err != nil {
			return err
		}

		st, err := s.ensureStats(tx, event.UserID)
		if err != nil {
			return err
		}

		switch event.Type {
		case models.EventDareCompleted:
			ps, err := s.applyCompletion(tx, event, st)
			if err != nil {
				return err
			}
			pstats = ps
		case models.EventDareSent:
			st.DaresSent++
		case models.EventInviteCodeShared:
			st.InviteShares++
		case models.EventInviteCodeRegenerated:
			st.InviteRegens++
		case models.EventScreenVisited:
			if err := s.applyScreenVisit(tx, event, st); err != nil {
				return err
			}
		case models.EventFeatureUsed:
			applyFeatureUse(event.FeatureID, st)
		}

		if err := tx.Save(st).Error; err != nil {
			return err
		}
		stats = st
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return stats, pstats, nil
}

// Snapshot returns the current aggregates without mutating anything, creating
// a zero-state row for first-time users.
func (s *StatService) Snapshot(userID string) (*models.UserStats, *models.PartnershipStats, error) {
	if userID == "" {
		return nil, nil, ErrUnknownUser
	}
	var stats *models.UserStats
	var pstats *models.PartnershipStats
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		st, err := s.ensureStats(tx, userID)
		if err != nil {
			return err
		}
		stats = st
		p, err := s.activePartnership(tx, userID)
		if err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		ps, err := s.ensurePartnershipStats(tx, p)
		if err != nil {
			return err
		}
		pstats = ps
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return stats, pstats, nil
}

// ValidateEvent rejects events whose payload is missing what their type
// requires. Rejected events never touch state.
func ValidateEvent(event models.ActivityEvent) error {
	if event.UserID == "" {
		return fmt.Errorf("%w: event %s has no user", ErrUnknownUser, event.ID)
	}
	if event.ID == "" {
		return fmt.Errorf("%w: missing event ID", ErrMalformedEvent)
	}
	if !event.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, event.Type)
	}
	if event.Timestamp.IsZero() {
		return fmt.Errorf("%w: event %s has no timestamp", ErrMalformedEvent, event.ID)
	}
	switch event.Type {
	case models.EventDareCompleted:
		if !event.Category.Valid() {
			return fmt.Errorf("%w: dare completion %s has invalid category %q", ErrMalformedEvent, event.ID, event.Category)
		}
		if event.Points < 0 {
			return fmt.Errorf("%w: dare completion %s has negative points", ErrMalformedEvent, event.ID)
		}
	case models.EventScreenVisited:
		if event.ScreenID == "" {
			return fmt.Errorf("%w: screen visit %s has no screen ID", ErrMalformedEvent, event.ID)
		}
	case models.EventFeatureUsed:
		if event.FeatureID == "" {
			return fmt.Errorf("%w: feature use %s has no feature ID", ErrMalformedEvent, event.ID)
		}
	case models.EventCompetitionMonthClosed:
		if _, err := time.Parse("2006-01", event.Month); err != nil {
			return fmt.Errorf("%w: month close %s has invalid month %q", ErrMalformedEvent, event.ID, event.Month)
		}
	}
	return nil
}

// ensureStats loads the user's aggregate row, creating a zero-state one for
// first-time users (the explicit unknown-user policy).
func (s *StatService) ensureStats(tx *gorm.DB, userID string) (*models.UserStats, error) {
	var st models.UserStats
	err := tx.Where("external_user_id = ?", userID).First(&st).Error
	if err == gorm.ErrRecordNotFound {
		st = models.UserStats{
			ID:             uuid.NewString(),
			ExternalUserID: userID,
		}
		if err := tx.Create(&st).Error; err != nil {
			return nil, err
		}
		return &st, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *StatService) activePartnership(tx *gorm.DB, userID string) (*models.Partnership, error) {
	var p models.Partnership
	err := tx.Where("active = ? AND (user_a_id = ? OR user_b_id = ?)", true, userID, userID).First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *StatService) ensurePartnershipStats(tx *gorm.DB, p *models.Partnership) (*models.PartnershipStats, error) {
	var ps models.PartnershipStats
	err := tx.Where("partnership_id = ?", p.ID).First(&ps).Error
	if err == gorm.ErrRecordNotFound {
		ps = models.PartnershipStats{
			ID:            uuid.NewString(),
			PartnershipID: p.ID,
			UserAID:       p.UserAID,
			UserBID:       p.UserBID,
		}
		if err := tx.Create(&ps).Error; err != nil {
			return nil, err
		}
		return &ps, nil
	}
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

// applyCompletion handles every counter a dare completion can move: category
// and point totals, streak, time windows, speed windows, the completion log,
// and, when the user is linked, the partnership aggregates and the open
// competition month.
func (s *StatService) applyCompletion(tx *gorm.DB, event models.ActivityEvent, st *models.UserStats) (*models.PartnershipStats, error) {
	local := event.LocalTime()
	day := event.LocalDay()

	switch event.Category {
	case models.DareSweet:
		st.SweetCompleted++
	case models.DarePlayful:
		st.PlayfulCompleted++
	case models.DareAdventure:
		st.AdventureCompleted++
	case models.DarePassionate:
		st.PassionateCompleted++
	case models.DareWild:
		st.WildCompleted++
	}
	st.TotalCompleted++
	st.TotalPoints += event.Points

	applyStreak(st, day)

	if local.Hour() >= 22 {
		st.LateNightCompleted++
	}
	if local.Hour() < 8 {
		st.EarlyMorningCompleted++
	}
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		st.WeekendCompleted++
	}

	if err := s.applySpeedWindows(tx, st, event, day); err != nil {
		return nil, err
	}

	p, err := s.activePartnership(tx, event.UserID)
	if err != nil {
		return nil, err
	}

	var pid *string
	if p != nil {
		pid = &p.ID
	}

	// Partnership correlation reads the log before this completion joins it.
	var ps *models.PartnershipStats
	if p != nil {
		ps, err = s.correlatePartnership(tx, event, st, p)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Create(&models.DareCompletion{
		ID:             uuid.NewString(),
		EventID:        event.ID,
		ExternalUserID: event.UserID,
		PartnershipID:  pid,
		Category:       event.Category,
		Points:         event.Points,
		CompletedAt:    event.Timestamp.UTC(),
		LocalDay:       day,
	}).Error; err != nil {
		return nil, err
	}

	if p != nil {
		comp := NewCompetitionService(s.DB)
		if err := comp.Accrue(tx, p, event); err != nil {
			return nil, err
		}
	}

	return ps, nil
}

// applyStreak advances the consecutive-day counter. Day boundaries follow the
// event's local calendar day. LastActiveDay never moves backwards, so a
// late-arriving older completion cannot rewind the streak.
func applyStreak(st *models.UserStats, day string) {
	switch {
	case st.LastActiveDay == "":
		st.CurrentStreak = 1
		st.LastActiveDay = day
	case day == st.LastActiveDay:
		// second completion the same day, streak unchanged
	case day == nextDay(st.LastActiveDay):
		st.CurrentStreak++
		st.LastActiveDay = day
	case day > st.LastActiveDay:
		// gap of two or more days
		st.CurrentStreak = 1
		st.LastActiveDay = day
	default:
		// older than the stored day: counters still count it, the streak
		// clock does not move
	}
	if st.CurrentStreak > st.LongestStreak {
		st.LongestStreak = st.CurrentStreak
	}
}

// applySpeedWindows maintains the counters measured from the user's first
// completed dare. An out-of-order completion older than the stored epoch
// becomes the new epoch; every already-applied completion was tallied against
// the wrong first dare then, so the windows are rebuilt from the completion
// log. The result is the same whichever order the events arrived in.
func (s *StatService) applySpeedWindows(tx *gorm.DB, st *models.UserStats, event models.ActivityEvent, day string) error {
	ts := event.Timestamp.UTC()

	if st.FirstDareAt != nil && !ts.Before(*st.FirstDareAt) {
		if day == st.FirstDayLocal {
			st.FirstDayCompleted++
		}
		elapsed := ts.Sub(*st.FirstDareAt)
		if elapsed <= 24*time.Hour {
			st.Within24hOfFirst++
		}
		if elapsed <= 48*time.Hour {
			st.Within48hOfFirst++
		}
		return nil
	}

	// New epoch. The event itself is not in the log yet, so it seeds every
	// window before the replayed rows are added.
	st.FirstDareAt = &ts
	st.FirstDayLocal = day
	st.FirstDayCompleted = 1
	st.Within24hOfFirst = 1
	st.Within48hOfFirst = 1

	var prior []models.DareCompletion
	if err := tx.Where("external_user_id = ?", event.UserID).Find(&prior).Error; err != nil {
		return err
	}
	for _, c := range prior {
		if c.LocalDay == day {
			st.FirstDayCompleted++
		}
		elapsed := c.CompletedAt.Sub(ts)
		if elapsed <= 24*time.Hour {
			st.Within24hOfFirst++
		}
		if elapsed <= 48*time.Hour {
			st.Within48hOfFirst++
		}
	}
	return nil
}

// correlatePartnership updates the couple aggregates for one completion.
// Same-day and one-hour comparisons use event timestamps, never processing
// time; combined points are recomputed as the sum of both totals.
func (s *StatService) correlatePartnership(tx *gorm.DB, event models.ActivityEvent, st *models.UserStats, p *models.Partnership) (*models.PartnershipStats, error) {
	ps, err := s.ensurePartnershipStats(tx, p)
	if err != nil {
		return nil, err
	}
	partnerID := p.PartnerOf(event.UserID)
	partnerStats, err := s.ensureStats(tx, partnerID)
	if err != nil {
		return nil, err
	}

	day := event.LocalDay()
	ts := event.Timestamp.UTC()

	var mineToday, partnerToday int64
	if err := tx.Model(&models.DareCompletion{}).
		Where("external_user_id = ? AND local_day = ?", event.UserID, day).
		Count(&mineToday).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.DareCompletion{}).
		Where("external_user_id = ? AND local_day = ?", partnerID, day).
		Count(&partnerToday).Error; err != nil {
		return nil, err
	}
	// A joint day is counted once, when the second partner first shows up.
	if partnerToday > 0 && mineToday == 0 {
		ps.SameDayCompleted++
	}

	var nearby int64
	if err := tx.Model(&models.DareCompletion{}).
		Where("external_user_id = ? AND completed_at BETWEEN ? AND ?",
			partnerID, ts.Add(-time.Hour), ts.Add(time.Hour)).
		Count(&nearby).Error; err != nil {
		return nil, err
	}
	if nearby > 0 {
		ps.SyncedCompleted++
	}

	ps.CombinedPoints = st.TotalPoints + partnerStats.TotalPoints

	if st.CurrentStreak >= 7 && partnerStats.CurrentStreak >= 7 {
		ps.DualStreak = true
	}

	if err := tx.Save(ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *StatService) applyScreenVisit(tx *gorm.DB, event models.ActivityEvent, st *models.UserStats) error {
	var seen int64
	if err := tx.Model(&models.VisitedScreen{}).
		Where("external_user_id = ? AND screen_id = ?", event.UserID, event.ScreenID).
		Count(&seen).Error; err != nil {
		return err
	}
	if seen > 0 {
		return nil
	}
	if err := tx.Create(&models.VisitedScreen{
		ID:             uuid.NewString(),
		ExternalUserID: event.UserID,
		ScreenID:       event.ScreenID,
	}).Error; err != nil {
		return err
	}
	st.ScreensVisited++
	return nil
}

// Feature IDs the secret and special badges listen for.
const (
	FeatureSurpriseDare = "surprise_dare"
	FeatureMemoryAlbum  = "memory_album"
	FeatureStreakFreeze = "streak_freeze"
)

func applyFeatureUse(featureID string, st *models.UserStats) {
	switch featureID {
	case FeatureSurpriseDare:
		st.SurpriseDareUsed = true
	case FeatureMemoryAlbum:
		st.MemoryAlbumUsed = true
	case FeatureStreakFreeze:
		st.StreakFreezeUsed = true
	}
}

// nextDay returns the calendar day after day ("2006-01-02"). Malformed input
// returns "" which never matches, degrading to a streak reset.
func nextDay(day string) string {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format("2006-01-02")
}
