// workers/partnership_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"dare-achievement-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemotePartnership matches the JSON the accounts service returns for a
// couple link.
type RemotePartnership struct {
	ID       string     `json:"id"`
	UserAID  string     `json:"user_a_id"`
	UserBID  string     `json:"user_b_id"`
	Active   bool       `json:"active"`
	LinkedAt time.Time  `json:"linked_at"`
	EndedAt  *time.Time `json:"ended_at,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// GetPartnershipChangesResponse is the top-level sync response.
type GetPartnershipChangesResponse struct {
	Partnerships []RemotePartnership `json:"partnerships"`
}

// PartnershipSyncWorker mirrors the partner links owned by the accounts
// service into the local partnerships table the engine reads.
type PartnershipSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewPartnershipSyncWorker(db *gorm.DB, syncServiceBaseURL, endpointPath, serviceToken string) *PartnershipSyncWorker {
	return &PartnershipSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *PartnershipSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Partnership Sync Worker (accounts service → partnerships)…")
	go w.run(ctx)
}

func (w *PartnershipSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial partnership sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ Partnership sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Partnership Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt from the local table.
func (w *PartnershipSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM partnerships WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches partnership changes and upserts the local mirror.
func (w *PartnershipSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid sync service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sync service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetPartnershipChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode sync service response: %w", err)
	}

	if len(response.Partnerships) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d partnership change(s)…", len(response.Partnerships))

	var upsertCount, errorCount int
	for _, remote := range response.Partnerships {
		local := models.Partnership{
			ID:       remote.ID,
			UserAID:  remote.UserAID,
			UserBID:  remote.UserBID,
			Active:   remote.Active,
			LinkedAt: remote.LinkedAt,
			EndedAt:  remote.EndedAt,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_a_id", "user_b_id", "active", "linked_at", "ended_at", "updated_at",
			}),
		}).Create(&local).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert partnership %q: %v", remote.ID, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d partnership(s) (%d upserted, %d errors)",
		len(response.Partnerships), upsertCount, errorCount)
	return nil
}
