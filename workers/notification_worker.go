// workers/notification_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"dare-achievement-system/models"
	"dare-achievement-system/services"
	"dare-achievement-system/utils"

	"gorm.io/gorm"
)

// NotificationClient pushes badge-unlocked payloads to the notification
// service and marks the ledger rows notified.
type NotificationClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
	Catalog    *services.Catalog
}

func NewNotificationClient(db *gorm.DB, catalog *services.Catalog) *NotificationClient {
	baseURL := os.Getenv("NOTIFY_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("NOTIFY_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("ACHIEVEMENT_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("ACHIEVEMENT_SERVICE_TOKEN environment variable is required for notification dispatch")
	}

	return &NotificationClient{
		BaseURL:    baseURL,
		Token:      token,
		DB:         db,
		Catalog:    catalog,
		HTTPClient: utils.HTTPClient,
	}
}

// badgeNotification is what the notification service renders into a push:
// glyph, name and description straight from the definition.
type badgeNotification struct {
	UserID      string    `json:"user_id"`
	BadgeID     string    `json:"badge_id"`
	Glyph       string    `json:"glyph"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

func (c *NotificationClient) dispatch(ctx context.Context, unlock models.BadgeUnlock) error {
	def, ok := c.Catalog.Lookup(unlock.BadgeID)
	if !ok {
		return fmt.Errorf("unlock %s references unknown badge %s", unlock.ID, unlock.BadgeID)
	}

	payload, err := json.Marshal(badgeNotification{
		UserID:      unlock.ExternalUserID,
		BadgeID:     def.ID,
		Glyph:       def.Glyph,
		Name:        def.Name,
		Description: def.Description,
		UnlockedAt:  unlock.UnlockedAt,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.BaseURL+"/api/v1/internal/notifications/badge-unlocked", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call notification service: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification service returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// PollUnlocks ships pending unlock notifications on a fixed interval. A row
// is only marked notified after the service accepted the push, so failures
// retry on the next tick.
func PollUnlocks(ctx context.Context, client *NotificationClient, pollInterval time.Duration) {
	log.Println("Starting badge notification dispatch...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Badge notification dispatch stopped.")
			return
		case <-ticker.C:
			var pending []models.BadgeUnlock
			if err := client.DB.Where("notified = ?", false).
				Order("unlocked_at ASC").
				Limit(100).
				Find(&pending).Error; err != nil {
				log.Printf("❌ Failed to load pending unlocks: %v", err)
				continue
			}
			if len(pending) == 0 {
				continue
			}

			sent := 0
			for _, unlock := range pending {
				if err := client.dispatch(ctx, unlock); err != nil {
					log.Printf("❌ Failed to notify unlock %s (%s): %v", unlock.ID, unlock.BadgeID, err)
					continue
				}
				if err := client.DB.Model(&models.BadgeUnlock{}).
					Where("id = ?", unlock.ID).
					Update("notified", true).Error; err != nil {
					log.Printf("❌ Failed to mark unlock %s notified: %v", unlock.ID, err)
					continue
				}
				sent++
			}
			if sent > 0 {
				log.Printf("📣 Dispatched %d badge notification(s)", sent)
			}
		}
	}
}
