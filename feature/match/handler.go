package match

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"rfid-portal/feature/reader"
)

// Handler handles HTTP requests for the match pipeline.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the match admin routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/notifications/clear", h.HandleClearNotifications)
	app.Get("/notifications/status", h.HandleStatus)
	app.Post("/comparisons/reset", h.HandleResetComparisons)
	app.Post("/test-match", h.HandleTestMatch)
}

// HandleClearNotifications drops the pending notification queue.
func (h *Handler) HandleClearNotifications(c *fiber.Ctx) error {
	h.service.ClearNotifications()
	return c.JSON(fiber.Map{"success": true, "message": "notifications cleared"})
}

// HandleStatus returns the pipeline counters.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleResetComparisons clears all cooldowns so matches can fire
// again immediately.
func (h *Handler) HandleResetComparisons(c *fiber.Ctx) error {
	h.service.ResetComparisons()
	return c.JSON(fiber.Map{"success": true, "message": "comparisons reset"})
}

// HandleTestMatch injects a synthetic reading for the given TID,
// exercising the full pipeline without a device.
func (h *Handler) HandleTestMatch(c *fiber.Ctx) error {
	var body struct {
		TID string `json:"tid"`
	}
	if err := c.BodyParser(&body); err != nil || strings.TrimSpace(body.TID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "tid is required",
		})
	}
	h.service.Offer(reader.TagReading{
		ID:        uuid.NewString(),
		TID:       strings.ToUpper(strings.TrimSpace(body.TID)),
		Timestamp: time.Now().UTC(),
	})
	return c.JSON(fiber.Map{"success": true, "message": "test reading injected"})
}
