package services

import (
	"fmt"
	"time"

	"dare-achievement-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// comebackMargin is the deficit a winner must have trailed by at some
// checkpoint for the win to count as a comeback.
const comebackMargin = 50

// CompetitionService runs the per-partnership monthly point race: accrual
// while a month is open, checkpoint snapshots, and the one-shot close that
// computes the outcome.
type CompetitionService struct {
	DB *gorm.DB
}

func NewCompetitionService(db *gorm.DB) *CompetitionService {
	return &CompetitionService{DB: db}
}

// Accrue adds a completion's points to the user's side of the open month the
// event falls in, opening the month lazily on first accrual. Points arriving
// after a month closed are dropped; the outcome is already final.
func (s *CompetitionService) Accrue(tx *gorm.DB, p *models.Partnership, event models.ActivityEvent) error {
	month := event.LocalTime().Format("2006-01")
	m, err := s.ensureMonth(tx, p, month)
	if err != nil {
		return err
	}
	if m.Status == models.MonthClosed {
		return nil
	}
	switch event.UserID {
	case m.UserAID:
		m.PointsA += event.Points
	case m.UserBID:
		m.PointsB += event.Points
	default:
		return nil
	}
	return tx.Save(m).Error
}

func (s *CompetitionService) ensureMonth(tx *gorm.DB, p *models.Partnership, month string) (*models.CompetitionMonth, error) {
	var m models.CompetitionMonth
	err := tx.Where("partnership_id = ? AND month = ?", p.ID, month).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		m = models.CompetitionMonth{
			ID:            uuid.NewString(),
			PartnershipID: p.ID,
			Month:         month,
			Status:        models.MonthOpen,
			UserAID:       p.UserAID,
			UserBID:       p.UserBID,
		}
		if err := tx.Create(&m).Error; err != nil {
			return nil, err
		}
		return &m, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordCheckpoint snapshots one open month's points.
func (s *CompetitionService) RecordCheckpoint(tx *gorm.DB, m *models.CompetitionMonth, at time.Time) error {
	return tx.Create(&models.CompetitionCheckpoint{
		ID:         uuid.NewString(),
		MonthID:    m.ID,
		PointsA:    m.PointsA,
		PointsB:    m.PointsB,
		RecordedAt: at.UTC(),
	}).Error
}

// RecordOpenCheckpoints snapshots every open month. Called by the scheduler.
func (s *CompetitionService) RecordOpenCheckpoints() (int, error) {
	var months []models.CompetitionMonth
	if err := s.DB.Where("status = ?", models.MonthOpen).Find(&months).Error; err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	recorded := 0
	for i := range months {
		if err := s.RecordCheckpoint(s.DB, &months[i], now); err != nil {
			return recorded, err
		}
		recorded++
	}
	return recorded, nil
}

// OpenElapsedMonths returns open months whose calendar month has ended.
func (s *CompetitionService) OpenElapsedMonths(now time.Time) ([]models.CompetitionMonth, error) {
	current := now.UTC().Format("2006-01")
	var months []models.CompetitionMonth
	err := s.DB.Where("status = ? AND month < ?", models.MonthOpen, current).Find(&months).Error
	return months, err
}

// CloseMonth finalizes one month: winner (equal points mark both partners
// winners), margin, comeback and lead-timeline flags from the recorded
// checkpoints, and the per-user lifetime competition counters. Closing a
// month twice is a no-op returning the stored result. Closing with no
// recorded checkpoints returns ErrInsufficientData and leaves the month open.
func (s *CompetitionService) CloseMonth(partnershipID, month string) (*models.CompetitionMonth, map[string]models.CompetitionOutcome, error) {
	var closed *models.CompetitionMonth
	outcomes := make(map[string]models.CompetitionOutcome)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var m models.CompetitionMonth
		err := tx.Where("partnership_id = ? AND month = ?", partnershipID, month).First(&m).Error
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: no month %s for partnership %s", ErrInsufficientData, month, partnershipID)
		}
		if err != nil {
			return err
		}

		if m.Status == models.MonthClosed {
			// Already computed: rebuild the outcomes from the stored result.
			outcomesFor(&m, outcomes)
			closed = &m
			return nil
		}

		var checkpoints []models.CompetitionCheckpoint
		if err := tx.Where("month_id = ?", m.ID).Order("recorded_at ASC").Find(&checkpoints).Error; err != nil {
			return err
		}
		if len(checkpoints) == 0 {
			return fmt.Errorf("%w: month %s has no checkpoints", ErrInsufficientData, month)
		}

		m.Tie = m.PointsA == m.PointsB
		m.Margin = m.PointsA - m.PointsB
		if m.Margin < 0 {
			m.Margin = -m.Margin
		}

		if !m.Tie {
			winnerIsA := m.PointsA > m.PointsB
			if winnerIsA {
				m.WinnerID = m.UserAID
			} else {
				m.WinnerID = m.UserBID
			}
			m.ComebackWin, m.LedEntireMonth, m.FinalDayTakeover =
				leadHistory(checkpoints, winnerIsA, m.Month)
		}

		if err := s.settleUserCounters(tx, &m); err != nil {
			return err
		}

		now := time.Now().UTC()
		m.Status = models.MonthClosed
		m.ClosedAt = &now
		if err := tx.Save(&m).Error; err != nil {
			return err
		}

		outcomesFor(&m, outcomes)
		closed = &m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return closed, outcomes, nil
}

// leadHistory derives the winner's comeback and lead-timeline flags from the
// checkpoint snapshots.
func leadHistory(checkpoints []models.CompetitionCheckpoint, winnerIsA bool, month string) (comeback, ledEntire, finalDayTakeover bool) {
	winnerDeficit := func(cp models.CompetitionCheckpoint) int64 {
		if winnerIsA {
			return cp.PointsB - cp.PointsA
		}
		return cp.PointsA - cp.PointsB
	}

	ledEntire = true
	for _, cp := range checkpoints {
		d := winnerDeficit(cp)
		if d >= comebackMargin {
			comeback = true
		}
		if d >= 0 { // trailing or tied
			ledEntire = false
		}
	}

	// Took the lead only in the final day: behind or tied at every checkpoint
	// recorded before the month's last calendar day, with at least one such
	// checkpoint to judge by.
	finalDay := lastDayOfMonth(month)
	sawEarlier := false
	finalDayTakeover = true
	for _, cp := range checkpoints {
		if cp.RecordedAt.UTC().Format("2006-01-02") >= finalDay {
			continue
		}
		sawEarlier = true
		if winnerDeficit(cp) < 0 { // already leading before the final day
			finalDayTakeover = false
			break
		}
	}
	if !sawEarlier {
		finalDayTakeover = false
	}
	return comeback, ledEntire, finalDayTakeover
}

func lastDayOfMonth(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 1, -1).Format("2006-01-02")
}

// settleUserCounters updates both partners' lifetime competition aggregates
// and snapshots the settled values onto the month row. A tie counts as a win
// for both, so it extends both consecutive-win streaks.
func (s *CompetitionService) settleUserCounters(tx *gorm.DB, m *models.CompetitionMonth) error {
	stats := NewStatService(s.DB)
	for _, userID := range []string{m.UserAID, m.UserBID} {
		st, err := stats.ensureStats(tx, userID)
		if err != nil {
			return err
		}
		st.CompetitionMonths++
		if m.Tie || m.WinnerID == userID {
			st.CompetitionWins++
			st.ConsecutiveWins++
		} else {
			st.ConsecutiveWins = 0
		}
		if err := tx.Save(st).Error; err != nil {
			return err
		}
		if userID == m.UserAID {
			m.SettledMonthsA, m.SettledWinsA, m.SettledStreakA =
				st.CompetitionMonths, st.CompetitionWins, st.ConsecutiveWins
		} else {
			m.SettledMonthsB, m.SettledWinsB, m.SettledStreakB =
				st.CompetitionMonths, st.CompetitionWins, st.ConsecutiveWins
		}
	}
	return nil
}

// outcomesFor builds the per-user evaluator view of a closed month entirely
// from the stored row, so a replay reports what the original close reported.
func outcomesFor(m *models.CompetitionMonth, outcomes map[string]models.CompetitionOutcome) {
	sides := []struct {
		userID               string
		months, wins, streak int64
	}{
		{m.UserAID, m.SettledMonthsA, m.SettledWinsA, m.SettledStreakA},
		{m.UserBID, m.SettledMonthsB, m.SettledWinsB, m.SettledStreakB},
	}
	for _, side := range sides {
		won := m.Tie || m.WinnerID == side.userID
		isWinner := m.WinnerID == side.userID
		outcomes[side.userID] = models.CompetitionOutcome{
			Month:              m.Month,
			Won:                won,
			Tie:                m.Tie,
			Margin:             m.Margin,
			Comeback:           isWinner && m.ComebackWin,
			LedEntireMonth:     isWinner && m.LedEntireMonth,
			FinalDayTakeover:   isWinner && m.FinalDayTakeover,
			MonthsParticipated: side.months,
			TotalWins:          side.wins,
			ConsecutiveWins:    side.streak,
		}
	}
}

// History returns a partnership's months, newest first.
func (s *CompetitionService) History(partnershipID string, limit int) ([]models.CompetitionMonth, error) {
	if limit < 1 || limit > 100 {
		limit = 12
	}
	var months []models.CompetitionMonth
	err := s.DB.Where("partnership_id = ?", partnershipID).
		Order("month DESC").
		Limit(limit).
		Find(&months).Error
	return months, err
}
