package services

import (
	"testing"
)

func TestLedgerSubmitAwardsOnce(t *testing.T) {
	l := NewLedgerService(openTestDB(t), DefaultCatalog())

	candidates := []string{"first_spark", "dare_starter"}
	newly, err := l.Submit("u1", candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(newly) != 2 {
		t.Fatalf("first submit awarded %v, want both candidates", newly)
	}

	// The identical submission again yields nothing new.
	newly, err = l.Submit("u1", candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(newly) != 0 {
		t.Errorf("second submit awarded %v, want none", newly)
	}
}

func TestLedgerSubmitPartialOverlap(t *testing.T) {
	l := NewLedgerService(openTestDB(t), DefaultCatalog())

	if _, err := l.Submit("u1", []string{"first_spark"}); err != nil {
		t.Fatal(err)
	}
	newly, err := l.Submit("u1", []string{"first_spark", "night_owl"})
	if err != nil {
		t.Fatal(err)
	}
	if len(newly) != 1 || newly[0] != "night_owl" {
		t.Errorf("overlap submit awarded %v, want only night_owl", newly)
	}
}

func TestLedgerSubmitDropsUnknownBadges(t *testing.T) {
	l := NewLedgerService(openTestDB(t), DefaultCatalog())

	newly, err := l.Submit("u1", []string{"no_such_badge", "first_spark"})
	if err != nil {
		t.Fatal(err)
	}
	if len(newly) != 1 || newly[0] != "first_spark" {
		t.Errorf("awarded %v, want only first_spark", newly)
	}

	unlocks, err := l.Unlocked("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(unlocks) != 1 {
		t.Errorf("ledger holds %d rows, want 1", len(unlocks))
	}
}

func TestLedgerUnlockedIsPerUser(t *testing.T) {
	l := NewLedgerService(openTestDB(t), DefaultCatalog())

	if _, err := l.Submit("u1", []string{"first_spark"}); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Submit("u2", []string{"night_owl", "first_spark"}); err != nil {
		t.Fatal(err)
	}

	unlocks, err := l.Unlocked("u2")
	if err != nil {
		t.Fatal(err)
	}
	ids := make([]string, 0, len(unlocks))
	for _, u := range unlocks {
		ids = append(ids, u.BadgeID)
	}
	if len(ids) != 2 || !containsBadge(ids, "night_owl") || !containsBadge(ids, "first_spark") {
		t.Errorf("u2 unlocks = %v", ids)
	}

	unlocks, err = l.Unlocked("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(unlocks) != 1 {
		t.Errorf("u1 unlocks = %d rows, want 1", len(unlocks))
	}
}
