package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"dare-achievement-system/models"

	"github.com/google/uuid"
)

func TestIngestUnlocksFirstCompletion(t *testing.T) {
	e := NewAchievementEngine(openTestDB(t), DefaultCatalog())

	res := mustIngest(t, e, completion("u1", day(2026, time.March, 1, 12), models.DareSweet, 10))
	ids := unlockedIDs(res, "u1")
	if !containsBadge(ids, "first_spark") {
		t.Errorf("first completion unlocked %v, want first_spark", ids)
	}
	if res.User == nil || res.User.TotalCompleted != 1 {
		t.Errorf("result stats = %+v", res.User)
	}
}

func TestIngestDuplicateEvent(t *testing.T) {
	e := NewAchievementEngine(openTestDB(t), DefaultCatalog())

	ev := completion("u1", day(2026, time.March, 1, 12), models.DareSweet, 10)
	mustIngest(t, e, ev)

	res, err := e.Ingest(ev)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Duplicate {
		t.Error("replayed event not marked duplicate")
	}
	if len(res.Unlocked) != 0 {
		t.Errorf("replay unlocked %v", res.Unlocked)
	}
}

func TestIngestAwardsAtMostOnce(t *testing.T) {
	e := NewAchievementEngine(openTestDB(t), DefaultCatalog())

	mustIngest(t, e, completion("u1", day(2026, time.March, 1, 12), models.DareSweet, 10))
	res := mustIngest(t, e, completion("u1", day(2026, time.March, 1, 14), models.DareSweet, 10))
	if containsBadge(unlockedIDs(res, "u1"), "first_spark") {
		t.Error("first_spark awarded a second time")
	}
}

func TestIngestCategoryBadgeAtThreshold(t *testing.T) {
	e := NewAchievementEngine(openTestDB(t), DefaultCatalog())

	var res *IngestResult
	for i := 0; i < 5; i++ {
		res = mustIngest(t, e, completion("u1", day(2026, time.March, 1+i, 12), models.DarePlayful, 10))
	}
	ids := unlockedIDs(res, "u1")
	if !containsBadge(ids, "playful_pup") {
		t.Errorf("fifth playful completion unlocked %v, want playful_pup", ids)
	}
	// The streak badge lands on the third consecutive day.
	unlocks, err := e.Ledger.Unlocked("u1")
	if err != nil {
		t.Fatal(err)
	}
	var all []string
	for _, u := range unlocks {
		all = append(all, u.BadgeID)
	}
	if !containsBadge(all, "warm_streak") {
		t.Errorf("ledger = %v, want warm_streak present", all)
	}
}

func TestIngestMalformedEvent(t *testing.T) {
	e := NewAchievementEngine(openTestDB(t), DefaultCatalog())

	ev := models.ActivityEvent{ID: uuid.NewString(), Type: "mystery", UserID: "u1", Timestamp: day(2026, time.March, 1, 12)}
	if _, err := e.Ingest(ev); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("err = %v, want ErrMalformedEvent", err)
	}
}

func TestIngestMonthCloseRequiresPartnership(t *testing.T) {
	e := NewAchievementEngine(openTestDB(t), DefaultCatalog())

	ev := models.ActivityEvent{
		ID:        uuid.NewString(),
		Type:      models.EventCompetitionMonthClosed,
		UserID:    "solo",
		Timestamp: day(2026, time.April, 1, 0),
		Month:     "2026-03",
	}
	if _, err := e.Ingest(ev); !errors.Is(err, ErrNoPartnership) {
		t.Fatalf("err = %v, want ErrNoPartnership", err)
	}
}

func TestEngineCloseMonthAwardsBothPartners(t *testing.T) {
	db := openTestDB(t)
	e := NewAchievementEngine(db, DefaultCatalog())
	linkPartners(t, db, "p1", "ua", "ub")

	// Identical totals: the tie makes both partners winners.
	mustIngest(t, e, completion("ua", day(2026, time.March, 2, 12), models.DareSweet, 120))
	mustIngest(t, e, completion("ub", day(2026, time.March, 3, 12), models.DareSweet, 120))
	m := openMonth(t, e.Competitions, "p1", "2026-03")
	checkpointAt(t, e.Competitions, m, day(2026, time.March, 15, 12))

	res, err := e.CloseMonth("p1", "2026-03")
	if err != nil {
		t.Fatal(err)
	}
	for _, userID := range []string{"ua", "ub"} {
		ids := unlockedIDs(res, userID)
		if !containsBadge(ids, "first_crown") {
			t.Errorf("%s unlocked %v, want first_crown", userID, ids)
		}
		if !containsBadge(ids, "photo_finish") {
			t.Errorf("%s unlocked %v, want photo_finish", userID, ids)
		}
	}

	// Replaying the close awards nothing further.
	res, err = e.CloseMonth("p1", "2026-03")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Unlocked) != 0 {
		t.Errorf("replayed close unlocked %v", res.Unlocked)
	}
}

func TestEngineCloseElapsedMonthsSkipsEmpty(t *testing.T) {
	db := openTestDB(t)
	e := NewAchievementEngine(db, DefaultCatalog())
	linkPartners(t, db, "p1", "ua", "ub")

	// March accrued points but never got a checkpoint.
	mustIngest(t, e, completion("ua", day(2026, time.March, 2, 12), models.DareSweet, 10))

	if err := e.CloseElapsedMonths(day(2026, time.April, 2, 0)); err != nil {
		t.Fatalf("close elapsed: %v", err)
	}
	m := openMonth(t, e.Competitions, "p1", "2026-03")
	if m.Status != models.MonthOpen {
		t.Error("checkpoint-less month should stay open")
	}
}

func TestProgress(t *testing.T) {
	e := NewAchievementEngine(openTestDB(t), DefaultCatalog())

	mustIngest(t, e, completion("u1", day(2026, time.March, 1, 12), models.DareSweet, 40))
	mustIngest(t, e, completion("u1", day(2026, time.March, 2, 12), models.DareWild, 60))

	current, threshold, err := e.Progress("u1", "first_hundred")
	if err != nil {
		t.Fatal(err)
	}
	if current != 100 || threshold != 100 {
		t.Errorf("first_hundred progress = %d/%d", current, threshold)
	}

	current, threshold, err = e.Progress("u1", "sweet_start")
	if err != nil {
		t.Fatal(err)
	}
	if current != 1 || threshold != 5 {
		t.Errorf("sweet_start progress = %d/%d", current, threshold)
	}

	if _, _, err := e.Progress("u1", "no_such_badge"); !errors.Is(err, ErrUnknownBadge) {
		t.Errorf("unknown badge err = %v", err)
	}
}

func TestGalleryMasksLockedSecrets(t *testing.T) {
	e := NewAchievementEngine(openTestDB(t), DefaultCatalog())

	mustIngest(t, e, completion("u1", day(2026, time.March, 1, 12), models.DareSweet, 10))

	entries, err := e.Gallery("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != e.Catalog.Len() {
		t.Fatalf("gallery has %d entries, want the full catalog of %d", len(entries), e.Catalog.Len())
	}
	for _, entry := range entries {
		switch entry.Badge.ID {
		case "first_spark":
			if !entry.Unlocked || entry.UnlockedAt == nil {
				t.Errorf("first_spark entry = %+v, want unlocked", entry)
			}
		default:
			if entry.Badge.Category == models.CategorySecret && entry.Unlocked {
				t.Errorf("locked secret %s reported unlocked", entry.Badge.ID)
			}
		}
	}
}

func TestIngestConcurrentSameUser(t *testing.T) {
	e := NewAchievementEngine(openTestDB(t), DefaultCatalog())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(d int) {
			defer wg.Done()
			ev := completion("u1", day(2026, time.March, 1+d, 12), models.DareSweet, 10)
			if _, err := e.Ingest(ev); err != nil {
				t.Errorf("ingest day %d: %v", d, err)
			}
		}(i)
	}
	wg.Wait()

	stats, _, err := e.Stats.Snapshot("u1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCompleted != 8 || stats.TotalPoints != 80 {
		t.Errorf("after concurrent ingest: completed %d points %d", stats.TotalCompleted, stats.TotalPoints)
	}

	unlocks, err := e.Ledger.Unlocked("u1")
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]int{}
	for _, u := range unlocks {
		seen[u.BadgeID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("badge %s awarded %d times", id, n)
		}
	}
}
