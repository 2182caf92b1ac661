package services

import (
	"testing"

	"dare-achievement-system/models"
)

func TestDefaultCatalogLookup(t *testing.T) {
	c := DefaultCatalog()

	def, ok := c.Lookup("night_owl")
	if !ok {
		t.Fatal("night_owl missing from catalog")
	}
	if def.Category != models.CategoryTime {
		t.Errorf("night_owl category = %s, want %s", def.Category, models.CategoryTime)
	}
	if def.Threshold != 10 {
		t.Errorf("night_owl threshold = %d, want 10", def.Threshold)
	}

	if _, ok := c.Lookup("no_such_badge"); ok {
		t.Error("Lookup returned a definition for an unknown ID")
	}
}

func TestCatalogInsertionOrder(t *testing.T) {
	c := DefaultCatalog()
	all := c.All()
	if len(all) != c.Len() {
		t.Fatalf("All() returned %d entries, Len() says %d", len(all), c.Len())
	}
	if all[0].ID != "first_spark" {
		t.Errorf("first entry = %s, want first_spark", all[0].ID)
	}
	// All() hands out a copy; mutating it must not touch the catalog.
	all[0].Name = "tampered"
	if fresh := c.All(); fresh[0].Name == "tampered" {
		t.Error("All() exposes internal state")
	}
}

func TestCatalogByCategory(t *testing.T) {
	c := DefaultCatalog()
	streaks := c.ByCategory(models.CategoryStreak)
	if len(streaks) != 4 {
		t.Fatalf("streak badges = %d, want 4", len(streaks))
	}
	want := []int64{3, 7, 30, 100}
	for i, def := range streaks {
		if def.Threshold != want[i] {
			t.Errorf("streak badge %s threshold = %d, want %d", def.ID, def.Threshold, want[i])
		}
	}
}

func TestSecretBadgesIncludedAndHidden(t *testing.T) {
	c := DefaultCatalog()
	secrets := c.ByCategory(models.CategorySecret)
	if len(secrets) == 0 {
		t.Fatal("no secret badges in catalog")
	}
	for _, def := range secrets {
		if !def.Hidden() {
			t.Errorf("secret badge %s not hidden", def.ID)
		}
	}
	// Every non-secret badge is visible.
	for _, def := range c.All() {
		if def.Category != models.CategorySecret && def.Hidden() {
			t.Errorf("non-secret badge %s reports hidden", def.ID)
		}
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]models.BadgeDefinition{
		{ID: "dup", Name: "A", Category: models.CategorySpeed, Threshold: 1},
		{ID: "dup", Name: "B", Category: models.CategorySpeed, Threshold: 2},
	})
	if err == nil {
		t.Fatal("duplicate badge IDs accepted")
	}
}

func TestNewCatalogRejectsInvalidCategory(t *testing.T) {
	_, err := NewCatalog([]models.BadgeDefinition{
		{ID: "x", Name: "X", Category: "made_up", Threshold: 1},
	})
	if err == nil {
		t.Fatal("invalid category accepted")
	}
}
