// handlers/events.go
package handlers

import (
	"errors"

	"dare-achievement-system/middleware"
	"dare-achievement-system/models"
	"dare-achievement-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupEventRoutes wires the event ingestion endpoint. The gateway forwards
// activity facts from the dare service here; the response carries the badges
// this exact event unlocked so the notification layer can render them.
func SetupEventRoutes(app *fiber.App, engine *services.AchievementEngine) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/events", func(c *fiber.Ctx) error {
		var event models.ActivityEvent
		if err := c.BodyParser(&event); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		// Non-admins can only report their own activity.
		userID := c.Locals("user_id").(string)
		if !middleware.HasRole(c, "admin") {
			event.UserID = userID
		} else if event.UserID == "" {
			event.UserID = userID
		}

		result, err := engine.Ingest(event)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrMalformedEvent),
				errors.Is(err, services.ErrUnknownUser):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "event rejected",
					"cause": err.Error(),
				})
			case errors.Is(err, services.ErrNoPartnership):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "no active partnership",
					"cause": err.Error(),
				})
			case errors.Is(err, services.ErrInsufficientData):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "competition month has insufficient data",
					"cause": err.Error(),
				})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to apply event",
					"cause": err.Error(),
				})
			}
		}

		return c.JSON(result)
	})
}
