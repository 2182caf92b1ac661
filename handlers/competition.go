// handlers/competition.go
package handlers

import (
	"errors"

	"dare-achievement-system/middleware"
	"dare-achievement-system/models"
	"dare-achievement-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupCompetitionRoutes wires the competition screens and the admin month
// close.
func SetupCompetitionRoutes(app *fiber.App, engine *services.AchievementEngine) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/partnership/competition", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var p models.Partnership
		err := engine.DB.Where("active = ? AND (user_a_id = ? OR user_b_id = ?)", true, userID, userID).
			First(&p).Error
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no active partnership",
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to resolve partnership",
				"cause": err.Error(),
			})
		}

		months, err := engine.Competitions.History(p.ID, 12)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load competition history",
				"cause": err.Error(),
			})
		}

		var current *models.CompetitionMonth
		history := make([]models.CompetitionMonth, 0, len(months))
		for i := range months {
			if months[i].Status == models.MonthOpen && current == nil {
				current = &months[i]
				continue
			}
			history = append(history, months[i])
		}

		return c.JSON(fiber.Map{
			"partnership_id": p.ID,
			"current":        current,
			"history":        history,
		})
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Post("/competition/close", func(c *fiber.Ctx) error {
		if !middleware.HasRole(c, "admin") {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin role required",
			})
		}

		type Req struct {
			PartnershipID string `json:"partnership_id"`
			Month         string `json:"month"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.PartnershipID == "" || req.Month == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "partnership_id and month are required",
			})
		}

		result, err := engine.CloseMonth(req.PartnershipID, req.Month)
		if err != nil {
			if errors.Is(err, services.ErrInsufficientData) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "insufficient data to close month",
					"cause": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "month close failed",
				"cause": err.Error(),
			})
		}

		return c.JSON(result)
	})
}
