package services

import (
	"testing"
	"time"

	"dare-achievement-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.UserStats{},
		&models.PartnershipStats{},
		&models.Partnership{},
		&models.AppliedEvent{},
		&models.DareCompletion{},
		&models.VisitedScreen{},
		&models.BadgeUnlock{},
		&models.BadgeArtwork{},
		&models.CompetitionMonth{},
		&models.CompetitionCheckpoint{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func linkPartners(t *testing.T, db *gorm.DB, id, userA, userB string) models.Partnership {
	t.Helper()
	p := models.Partnership{
		ID:       id,
		UserAID:  userA,
		UserBID:  userB,
		Active:   true,
		LinkedAt: time.Now().UTC(),
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create partnership: %v", err)
	}
	return p
}

func completion(userID string, at time.Time, cat models.DareCategory, points int64) models.ActivityEvent {
	return models.ActivityEvent{
		ID:        uuid.NewString(),
		Type:      models.EventDareCompleted,
		UserID:    userID,
		Timestamp: at,
		Category:  cat,
		Points:    points,
	}
}

func mustApply(t *testing.T, s *StatService, event models.ActivityEvent) *models.UserStats {
	t.Helper()
	stats, _, err := s.Apply(event)
	if err != nil {
		t.Fatalf("apply %s: %v", event.Type, err)
	}
	return stats
}

func mustIngest(t *testing.T, e *AchievementEngine, event models.ActivityEvent) *IngestResult {
	t.Helper()
	res, err := e.Ingest(event)
	if err != nil {
		t.Fatalf("ingest %s: %v", event.Type, err)
	}
	return res
}

func containsBadge(ids []string, want string) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func unlockedIDs(res *IngestResult, userID string) []string {
	var ids []string
	for _, def := range res.Unlocked[userID] {
		ids = append(ids, def.ID)
	}
	return ids
}

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}
