package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"dare-achievement-system/models"

	"gorm.io/gorm"
)

// AchievementEngine ties the aggregator, evaluator, ledger and competition
// tracker together: one Ingest call per event, serialized per
// user-or-partnership key so streak and window updates stay ordered while
// unrelated couples proceed in parallel.
type AchievementEngine struct {
	DB           *gorm.DB
	Catalog      *Catalog
	Stats        *StatService
	Ledger       *LedgerService
	Competitions *CompetitionService

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAchievementEngine(db *gorm.DB, catalog *Catalog) *AchievementEngine {
	return &AchievementEngine{
		DB:           db,
		Catalog:      catalog,
		Stats:        NewStatService(db),
		Ledger:       NewLedgerService(db, catalog),
		Competitions: NewCompetitionService(db),
		locks:        make(map[string]*sync.Mutex),
	}
}

// IngestResult is what one event produced: the updated snapshots and the
// badges unlocked by exactly this call, keyed by user; a month close can
// unlock badges for both partners at once.
type IngestResult struct {
	Duplicate   bool                                `json:"duplicate"`
	User        *models.UserStats                   `json:"user,omitempty"`
	Partnership *models.PartnershipStats            `json:"partnership,omitempty"`
	Month       *models.CompetitionMonth            `json:"month,omitempty"`
	Unlocked    map[string][]models.BadgeDefinition `json:"unlocked"`
}

// Ingest applies one event, evaluates the catalog against the updated
// aggregates and records any newly satisfied badges. Replayed event IDs
// return a result with Duplicate set and an empty delta.
func (e *AchievementEngine) Ingest(event models.ActivityEvent) (*IngestResult, error) {
	if err := ValidateEvent(event); err != nil {
		return nil, err
	}

	if event.Type == models.EventCompetitionMonthClosed {
		p, err := e.partnershipOf(event.UserID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: user %s", ErrNoPartnership, event.UserID)
		}
		return e.CloseMonth(p.ID, event.Month)
	}

	key, err := e.serializationKey(event.UserID)
	if err != nil {
		return nil, err
	}
	release := e.lock(key)
	defer release()

	stats, pstats, err := e.Stats.Apply(event)
	if errors.Is(err, ErrDuplicateEvent) {
		return &IngestResult{Duplicate: true, Unlocked: map[string][]models.BadgeDefinition{}}, nil
	}
	if err != nil {
		return nil, err
	}

	candidates := Evaluate(e.Catalog, EvalContext{
		User:        *stats,
		Partnership: pstats,
		Event:       event,
	})
	newly, err := e.Ledger.Submit(event.UserID, candidates)
	if err != nil {
		return nil, err
	}

	res := &IngestResult{
		User:        stats,
		Partnership: pstats,
		Unlocked:    map[string][]models.BadgeDefinition{},
	}
	if len(newly) > 0 {
		res.Unlocked[event.UserID] = e.defsOf(newly)
		log.Printf("🏅 Unlocked for %s: %v", event.UserID, newly)
	}
	return res, nil
}

// CloseMonth finalizes a competition month and awards competition badges to
// both partners. Replaying a close is safe: the tracker returns the stored
// result and the ledger filters everything already awarded.
func (e *AchievementEngine) CloseMonth(partnershipID, month string) (*IngestResult, error) {
	release := e.lock(partnershipID)
	defer release()

	m, outcomes, err := e.Competitions.CloseMonth(partnershipID, month)
	if err != nil {
		return nil, err
	}

	res := &IngestResult{
		Month:    m,
		Unlocked: map[string][]models.BadgeDefinition{},
	}
	for userID := range outcomes {
		out := outcomes[userID]
		stats, pstats, err := e.Stats.Snapshot(userID)
		if err != nil {
			return nil, err
		}
		candidates := Evaluate(e.Catalog, EvalContext{
			User:        *stats,
			Partnership: pstats,
			Outcome:     &out,
		})
		newly, err := e.Ledger.Submit(userID, candidates)
		if err != nil {
			return nil, err
		}
		if len(newly) > 0 {
			res.Unlocked[userID] = e.defsOf(newly)
			log.Printf("🏅 Unlocked for %s on month close %s: %v", userID, month, newly)
		}
	}
	return res, nil
}

// CloseElapsedMonths closes every open month whose calendar month has ended.
// Months without checkpoints are skipped, not failed.
func (e *AchievementEngine) CloseElapsedMonths(now time.Time) error {
	months, err := e.Competitions.OpenElapsedMonths(now)
	if err != nil {
		return err
	}
	for _, m := range months {
		if _, err := e.CloseMonth(m.PartnershipID, m.Month); err != nil {
			if errors.Is(err, ErrInsufficientData) {
				log.Printf("[COMPETITION] ⚠️ Skipping close of %s/%s: %v", m.PartnershipID, m.Month, err)
				continue
			}
			return err
		}
		log.Printf("[COMPETITION] ✅ Closed month %s for partnership %s", m.Month, m.PartnershipID)
	}
	return nil
}

// Progress reports (current, threshold) for one badge, for the achievements
// gallery. Current is not capped at the threshold.
func (e *AchievementEngine) Progress(userID, badgeID string) (int64, int64, error) {
	def, ok := e.Catalog.Lookup(badgeID)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownBadge, badgeID)
	}
	stats, pstats, err := e.Stats.Snapshot(userID)
	if err != nil {
		return 0, 0, err
	}
	current := metricFor(def, EvalContext{User: *stats, Partnership: pstats})
	return current, def.Threshold, nil
}

// GalleryEntry is one badge in the full gallery view.
type GalleryEntry struct {
	Badge      models.BadgeDefinition `json:"badge"`
	Unlocked   bool                   `json:"unlocked"`
	UnlockedAt *time.Time             `json:"unlocked_at,omitempty"`
	Current    int64                  `json:"current"`
	Threshold  int64                  `json:"threshold"`
}

// Gallery returns every catalog badge with the user's unlock state and
// progress, in catalog order. Hidden-badge masking is the handler's problem.
func (e *AchievementEngine) Gallery(userID string) ([]GalleryEntry, error) {
	stats, pstats, err := e.Stats.Snapshot(userID)
	if err != nil {
		return nil, err
	}
	unlocks, err := e.Ledger.Unlocked(userID)
	if err != nil {
		return nil, err
	}
	unlockedAt := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		unlockedAt[u.BadgeID] = u.UnlockedAt
	}

	ctx := EvalContext{User: *stats, Partnership: pstats}
	entries := make([]GalleryEntry, 0, e.Catalog.Len())
	for _, def := range e.Catalog.All() {
		entry := GalleryEntry{
			Badge:     def,
			Current:   metricFor(def, ctx),
			Threshold: def.Threshold,
		}
		if at, ok := unlockedAt[def.ID]; ok {
			entry.Unlocked = true
			t := at
			entry.UnlockedAt = &t
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (e *AchievementEngine) partnershipOf(userID string) (*models.Partnership, error) {
	return e.Stats.activePartnership(e.DB, userID)
}

// serializationKey picks the lock key: the partnership when the user is
// linked (so both partners serialize together), the user otherwise.
func (e *AchievementEngine) serializationKey(userID string) (string, error) {
	p, err := e.partnershipOf(userID)
	if err != nil {
		return "", err
	}
	if p != nil {
		return p.ID, nil
	}
	return userID, nil
}

// lock acquires the per-key mutex and returns its release func. Keys are
// never removed; the key space is bounded by the active user base.
func (e *AchievementEngine) lock(key string) func() {
	e.mu.Lock()
	m, ok := e.locks[key]
	if !ok {
		m = &sync.Mutex{}
		e.locks[key] = m
	}
	e.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (e *AchievementEngine) defsOf(ids []string) []models.BadgeDefinition {
	defs := make([]models.BadgeDefinition, 0, len(ids))
	for _, id := range ids {
		if def, ok := e.Catalog.Lookup(id); ok {
			defs = append(defs, def)
		}
	}
	return defs
}
