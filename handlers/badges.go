// handlers/badges.go
package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"dare-achievement-system/middleware"
	"dare-achievement-system/models"
	"dare-achievement-system/services"
	"dare-achievement-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// SetupBadgeRoutes wires the achievements gallery, progress and catalog
// endpoints plus the admin artwork upload.
func SetupBadgeRoutes(app *fiber.App, engine *services.AchievementEngine) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		entries, err := engine.Gallery(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build gallery",
				"cause": err.Error(),
			})
		}
		artwork, err := artworkByBadge(engine.DB)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load artwork",
				"cause": err.Error(),
			})
		}

		unlockedCount := 0
		response := make([]fiber.Map, 0, len(entries))
		for _, e := range entries {
			if e.Unlocked {
				unlockedCount++
			}
			response = append(response, galleryJSON(e, artwork[e.Badge.ID]))
		}

		return c.JSON(fiber.Map{
			"badges":   response,
			"total":    len(entries),
			"unlocked": unlockedCount,
		})
	})

	securedGroup.Get("/user/badges/progress/:badgeId", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		badgeID := c.Params("badgeId")

		current, threshold, err := engine.Progress(userID, badgeID)
		if err != nil {
			if errors.Is(err, services.ErrUnknownBadge) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "badge not found",
					"cause": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to compute progress",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"badge_id":  badgeID,
			"current":   current,
			"threshold": threshold,
		})
	})

	securedGroup.Get("/user/stats", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		stats, pstats, err := engine.Stats.Snapshot(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load stats",
				"cause": err.Error(),
			})
		}
		response := fiber.Map{"user": stats}
		if pstats != nil {
			response["partnership"] = pstats
		}
		return c.JSON(response)
	})

	// Catalog is public within the gateway: hidden badges are masked, they
	// only exist as anonymous placeholders until unlocked.
	app.Get("/catalog", func(c *fiber.Ctx) error {
		defs := engine.Catalog.All()
		response := make([]fiber.Map, 0, len(defs))
		for _, def := range defs {
			if def.Hidden() {
				response = append(response, fiber.Map{
					"id":       def.ID,
					"category": def.Category,
					"hidden":   true,
				})
				continue
			}
			response = append(response, fiber.Map{
				"id":          def.ID,
				"glyph":       def.Glyph,
				"name":        def.Name,
				"description": def.Description,
				"category":    def.Category,
				"threshold":   def.Threshold,
				"hidden":      false,
			})
		}
		return c.JSON(fiber.Map{"badges": response, "total": len(response)})
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Post("/badges/:badgeId/artwork", func(c *fiber.Ctx) error {
		if !middleware.HasRole(c, "admin") {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin role required",
			})
		}

		badgeID := c.Params("badgeId")
		def, ok := engine.Catalog.Lookup(badgeID)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "badge not found",
			})
		}

		fileHeader, err := c.FormFile("artwork")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "artwork file missing",
				"cause": err.Error(),
			})
		}

		key := fmt.Sprintf("badges/%s%s", slug.Make(def.Name), filepath.Ext(fileHeader.Filename))
		url, err := utils.UploadBadgeArtwork(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "artwork upload failed",
				"cause": err.Error(),
			})
		}

		art := models.BadgeArtwork{
			ID:         uuid.NewString(),
			BadgeID:    def.ID,
			ArtworkURL: url,
			UploadedAt: time.Now().UTC(),
		}
		err = engine.DB.Where("badge_id = ?", def.ID).
			Assign(models.BadgeArtwork{ArtworkURL: url, UploadedAt: art.UploadedAt}).
			FirstOrCreate(&art).Error
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to save artwork record",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"badge_id":    def.ID,
			"artwork_url": url,
		})
	})
}

func artworkByBadge(db *gorm.DB) (map[string]string, error) {
	var rows []models.BadgeArtwork
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.BadgeID] = r.ArtworkURL
	}
	return out, nil
}

// galleryJSON renders one gallery entry, concealing hidden badges until they
// are unlocked.
func galleryJSON(e services.GalleryEntry, artworkURL string) fiber.Map {
	if e.Badge.Hidden() && !e.Unlocked {
		return fiber.Map{
			"id":       e.Badge.ID,
			"category": e.Badge.Category,
			"hidden":   true,
			"unlocked": false,
		}
	}
	m := fiber.Map{
		"id":          e.Badge.ID,
		"glyph":       e.Badge.Glyph,
		"name":        e.Badge.Name,
		"description": e.Badge.Description,
		"category":    e.Badge.Category,
		"hidden":      e.Badge.Hidden(),
		"unlocked":    e.Unlocked,
		"current":     e.Current,
		"threshold":   e.Threshold,
	}
	if e.UnlockedAt != nil {
		m["unlocked_at"] = e.UnlockedAt
	}
	if artworkURL != "" {
		m["artwork_url"] = artworkURL
	}
	return m
}
