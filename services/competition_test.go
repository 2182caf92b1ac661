package services

import (
	"errors"
	"testing"
	"time"

	"dare-achievement-system/models"
)

// seedMonth opens a month for the linked pair and accrues the given totals as
// two completions dated inside it.
func seedMonth(t *testing.T, s *StatService, month time.Month, pointsA, pointsB int64) {
	t.Helper()
	mustApply(t, s, completion("ua", day(2026, month, 2, 12), models.DareSweet, pointsA))
	mustApply(t, s, completion("ub", day(2026, month, 3, 12), models.DareSweet, pointsB))
}

func checkpointAt(t *testing.T, c *CompetitionService, m *models.CompetitionMonth, at time.Time) {
	t.Helper()
	if err := c.RecordCheckpoint(c.DB, m, at); err != nil {
		t.Fatal(err)
	}
}

func openMonth(t *testing.T, c *CompetitionService, partnershipID, month string) *models.CompetitionMonth {
	t.Helper()
	var m models.CompetitionMonth
	if err := c.DB.Where("partnership_id = ? AND month = ?", partnershipID, month).First(&m).Error; err != nil {
		t.Fatalf("month %s not opened: %v", month, err)
	}
	return &m
}

func TestCloseMonthTieMarksBothWinners(t *testing.T) {
	db := openTestDB(t)
	stats := NewStatService(db)
	comp := NewCompetitionService(db)
	linkPartners(t, db, "p1", "ua", "ub")

	seedMonth(t, stats, time.March, 340, 340)
	m := openMonth(t, comp, "p1", "2026-03")
	checkpointAt(t, comp, m, day(2026, time.March, 15, 12))

	closed, outcomes, err := comp.CloseMonth("p1", "2026-03")
	if err != nil {
		t.Fatal(err)
	}
	if !closed.Tie || closed.Margin != 0 || closed.WinnerID != "" {
		t.Errorf("tie close = %+v", closed)
	}
	for _, userID := range []string{"ua", "ub"} {
		out := outcomes[userID]
		if !out.Won || !out.Tie || out.Margin != 0 {
			t.Errorf("%s outcome = %+v, want a shared win", userID, out)
		}
		if out.TotalWins != 1 || out.ConsecutiveWins != 1 {
			t.Errorf("%s counters = %+v, want the tie to count as a win", userID, out)
		}
	}
}

func TestCloseMonthComebackDeficit(t *testing.T) {
	cases := []struct {
		name     string
		deficit  int64
		comeback bool
	}{
		{"sixty points behind", 60, true},
		{"forty points behind", 40, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := openTestDB(t)
			stats := NewStatService(db)
			comp := NewCompetitionService(db)
			linkPartners(t, db, "p1", "ua", "ub")

			// B leads mid-month by the given deficit, A wins in the end.
			seedMonth(t, stats, time.March, 0, tc.deficit)
			m := openMonth(t, comp, "p1", "2026-03")
			checkpointAt(t, comp, m, day(2026, time.March, 15, 12))

			mustApply(t, stats, completion("ua", day(2026, time.March, 20, 12), models.DareSweet, tc.deficit+100))
			m = openMonth(t, comp, "p1", "2026-03")
			checkpointAt(t, comp, m, day(2026, time.March, 21, 12))

			closed, outcomes, err := comp.CloseMonth("p1", "2026-03")
			if err != nil {
				t.Fatal(err)
			}
			if closed.WinnerID != "ua" {
				t.Fatalf("winner = %q, want ua", closed.WinnerID)
			}
			if out := outcomes["ua"]; out.Comeback != tc.comeback {
				t.Errorf("comeback = %v, want %v", out.Comeback, tc.comeback)
			}
			if out := outcomes["ub"]; out.Comeback {
				t.Error("loser flagged with a comeback")
			}
		})
	}
}

func TestCloseMonthWireToWire(t *testing.T) {
	db := openTestDB(t)
	stats := NewStatService(db)
	comp := NewCompetitionService(db)
	linkPartners(t, db, "p1", "ua", "ub")

	// A leads at every checkpoint.
	seedMonth(t, stats, time.March, 80, 20)
	m := openMonth(t, comp, "p1", "2026-03")
	checkpointAt(t, comp, m, day(2026, time.March, 10, 12))

	mustApply(t, stats, completion("ua", day(2026, time.March, 18, 12), models.DareSweet, 50))
	m = openMonth(t, comp, "p1", "2026-03")
	checkpointAt(t, comp, m, day(2026, time.March, 19, 12))

	closed, outcomes, err := comp.CloseMonth("p1", "2026-03")
	if err != nil {
		t.Fatal(err)
	}
	if closed.WinnerID != "ua" {
		t.Fatalf("winner = %q, want ua", closed.WinnerID)
	}
	out := outcomes["ua"]
	if !out.LedEntireMonth {
		t.Error("winner led every checkpoint but LedEntireMonth is false")
	}
	if out.FinalDayTakeover {
		t.Error("wire-to-wire win flagged as a final-day takeover")
	}
}

func TestCloseMonthFinalDayTakeover(t *testing.T) {
	db := openTestDB(t)
	stats := NewStatService(db)
	comp := NewCompetitionService(db)
	linkPartners(t, db, "p1", "ua", "ub")

	// A trails at every checkpoint before March 31, then wins with a burst
	// on the final day.
	seedMonth(t, stats, time.March, 10, 40)
	m := openMonth(t, comp, "p1", "2026-03")
	checkpointAt(t, comp, m, day(2026, time.March, 15, 12))
	checkpointAt(t, comp, m, day(2026, time.March, 30, 12))

	mustApply(t, stats, completion("ua", day(2026, time.March, 31, 20), models.DareWild, 45))

	closed, outcomes, err := comp.CloseMonth("p1", "2026-03")
	if err != nil {
		t.Fatal(err)
	}
	if closed.WinnerID != "ua" {
		t.Fatalf("winner = %q, want ua", closed.WinnerID)
	}
	if !outcomes["ua"].FinalDayTakeover {
		t.Error("final-day win after trailing all month not flagged")
	}
}

func TestCloseMonthIdempotent(t *testing.T) {
	db := openTestDB(t)
	stats := NewStatService(db)
	comp := NewCompetitionService(db)
	linkPartners(t, db, "p1", "ua", "ub")

	seedMonth(t, stats, time.March, 120, 80)
	m := openMonth(t, comp, "p1", "2026-03")
	checkpointAt(t, comp, m, day(2026, time.March, 15, 12))

	first, firstOut, err := comp.CloseMonth("p1", "2026-03")
	if err != nil {
		t.Fatal(err)
	}
	second, secondOut, err := comp.CloseMonth("p1", "2026-03")
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if second.Status != models.MonthClosed || second.WinnerID != first.WinnerID || second.Margin != first.Margin {
		t.Errorf("second close result drifted: %+v vs %+v", second, first)
	}
	// Lifetime counters settled exactly once.
	if firstOut["ua"].TotalWins != 1 || secondOut["ua"].TotalWins != 1 {
		t.Errorf("wins = %d then %d, want 1 both times", firstOut["ua"].TotalWins, secondOut["ua"].TotalWins)
	}
	if secondOut["ua"].MonthsParticipated != 1 {
		t.Errorf("months participated after replayed close = %d, want 1", secondOut["ua"].MonthsParticipated)
	}
}

func TestReplayedCloseReportsSettledCounters(t *testing.T) {
	db := openTestDB(t)
	stats := NewStatService(db)
	comp := NewCompetitionService(db)
	linkPartners(t, db, "p1", "ua", "ub")

	// A wins March, then wins April too, growing the lifetime counters.
	for _, month := range []time.Month{time.March, time.April} {
		seedMonth(t, stats, month, 100, 40)
		key := day(2026, month, 1, 0).Format("2006-01")
		m := openMonth(t, comp, "p1", key)
		checkpointAt(t, comp, m, day(2026, month, 15, 12))
		if _, _, err := comp.CloseMonth("p1", key); err != nil {
			t.Fatal(err)
		}
	}

	// Replaying the March close must report March's settled counters, not
	// the totals as of April.
	_, outcomes, err := comp.CloseMonth("p1", "2026-03")
	if err != nil {
		t.Fatal(err)
	}
	out := outcomes["ua"]
	if out.MonthsParticipated != 1 || out.TotalWins != 1 || out.ConsecutiveWins != 1 {
		t.Errorf("replayed March outcome = months %d wins %d consecutive %d, want 1/1/1",
			out.MonthsParticipated, out.TotalWins, out.ConsecutiveWins)
	}
	out = outcomes["ub"]
	if out.TotalWins != 0 || out.ConsecutiveWins != 0 {
		t.Errorf("replayed March loser outcome = wins %d consecutive %d, want 0/0",
			out.TotalWins, out.ConsecutiveWins)
	}
}

func TestCloseMonthWithoutCheckpoints(t *testing.T) {
	db := openTestDB(t)
	stats := NewStatService(db)
	comp := NewCompetitionService(db)
	linkPartners(t, db, "p1", "ua", "ub")

	seedMonth(t, stats, time.March, 50, 30)
	_, _, err := comp.CloseMonth("p1", "2026-03")
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("close without checkpoints: err = %v, want ErrInsufficientData", err)
	}

	m := openMonth(t, comp, "p1", "2026-03")
	if m.Status != models.MonthOpen {
		t.Error("failed close must leave the month open")
	}
}

func TestCloseMonthUnknownMonth(t *testing.T) {
	comp := NewCompetitionService(openTestDB(t))
	_, _, err := comp.CloseMonth("p1", "2026-03")
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestConsecutiveWinsResetOnLoss(t *testing.T) {
	db := openTestDB(t)
	stats := NewStatService(db)
	comp := NewCompetitionService(db)
	linkPartners(t, db, "p1", "ua", "ub")

	// A wins March and April, loses May.
	months := []struct {
		month   time.Month
		pointsA int64
		pointsB int64
	}{
		{time.March, 100, 50},
		{time.April, 90, 40},
		{time.May, 20, 70},
	}
	for _, spec := range months {
		seedMonth(t, stats, spec.month, spec.pointsA, spec.pointsB)
		key := day(2026, spec.month, 1, 0).Format("2006-01")
		m := openMonth(t, comp, "p1", key)
		checkpointAt(t, comp, m, day(2026, spec.month, 15, 12))
		if _, _, err := comp.CloseMonth("p1", key); err != nil {
			t.Fatal(err)
		}
	}

	st, _, err := stats.Snapshot("ua")
	if err != nil {
		t.Fatal(err)
	}
	if st.CompetitionMonths != 3 || st.CompetitionWins != 2 || st.ConsecutiveWins != 0 {
		t.Errorf("ua counters = months %d wins %d consecutive %d", st.CompetitionMonths, st.CompetitionWins, st.ConsecutiveWins)
	}

	st, _, err = stats.Snapshot("ub")
	if err != nil {
		t.Fatal(err)
	}
	if st.CompetitionWins != 1 || st.ConsecutiveWins != 1 {
		t.Errorf("ub counters = wins %d consecutive %d", st.CompetitionWins, st.ConsecutiveWins)
	}
}

func TestAccrueAfterCloseIsDropped(t *testing.T) {
	db := openTestDB(t)
	stats := NewStatService(db)
	comp := NewCompetitionService(db)
	linkPartners(t, db, "p1", "ua", "ub")

	seedMonth(t, stats, time.March, 60, 30)
	m := openMonth(t, comp, "p1", "2026-03")
	checkpointAt(t, comp, m, day(2026, time.March, 15, 12))
	if _, _, err := comp.CloseMonth("p1", "2026-03"); err != nil {
		t.Fatal(err)
	}

	// A late March completion still updates stats but not the closed month.
	mustApply(t, stats, completion("ua", day(2026, time.March, 28, 12), models.DareSweet, 500))
	m = openMonth(t, comp, "p1", "2026-03")
	if m.PointsA != 60 {
		t.Errorf("closed month points = %d, want the pre-close 60", m.PointsA)
	}
}
