package services

import (
	"time"

	"dare-achievement-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService is the single writer of badge unlock rows and the only
// enforcement point of at-most-once per (user, badge).
type LedgerService struct {
	DB      *gorm.DB
	Catalog *Catalog
}

func NewLedgerService(db *gorm.DB, catalog *Catalog) *LedgerService {
	return &LedgerService{DB: db, Catalog: catalog}
}

// Submit filters candidates against the user's existing unlocks, records the
// remainder, and returns exactly the badge IDs recorded by this call.
// Resubmitting the same candidates is defined behavior: the second call
// returns an empty set, never an error. Candidate IDs not in the catalog are
// dropped; the ledger never references an unknown badge.
func (s *LedgerService) Submit(userID string, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var newly []string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&models.BadgeUnlock{}).
			Where("external_user_id = ?", userID).
			Pluck("badge_id", &existing).Error; err != nil {
			return err
		}
		have := make(map[string]bool, len(existing))
		for _, id := range existing {
			have[id] = true
		}

		now := time.Now().UTC()
		for _, id := range candidates {
			if have[id] {
				continue
			}
			if _, ok := s.Catalog.Lookup(id); !ok {
				continue
			}
			if err := tx.Create(&models.BadgeUnlock{
				ID:             uuid.NewString(),
				ExternalUserID: userID,
				BadgeID:        id,
				UnlockedAt:     now,
			}).Error; err != nil {
				return err
			}
			have[id] = true
			newly = append(newly, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newly, nil
}

// Unlocked returns the user's unlock records, newest first.
func (s *LedgerService) Unlocked(userID string) ([]models.BadgeUnlock, error) {
	var unlocks []models.BadgeUnlock
	err := s.DB.Where("external_user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&unlocks).Error
	return unlocks, err
}
