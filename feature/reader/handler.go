package reader

import (
	"errors"

	"rfid-portal/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the reader session.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the reader routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/status", h.HandleStatus)
	app.Get("/readings", h.HandleReadings)
	app.Post("/readings/clear", h.HandleClearReadings)
	app.Get("/config", h.HandleGetConfig)
	app.Post("/config", h.HandleUpdateConfig)
	app.Post("/connect", h.HandleConnect)
	app.Post("/disconnect", h.HandleDisconnect)
	app.Post("/start-reading", h.HandleStartReading)
	app.Post("/stop-reading", h.HandleStopReading)
	app.Post("/power", h.HandleApplyPower)
}

// HandleStatus returns the current session snapshot.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleReadings returns the buffered reading history.
func (h *Handler) HandleReadings(c *fiber.Ctx) error {
	readings := h.service.Readings()
	return c.JSON(fiber.Map{
		"readings": readings,
		"count":    len(readings),
	})
}

// HandleClearReadings resets the reading history and counters.
func (h *Handler) HandleClearReadings(c *fiber.Ctx) error {
	h.service.ClearReadings()
	return c.JSON(fiber.Map{"success": true, "message": "readings cleared"})
}

// HandleGetConfig returns the current device settings.
func (h *Handler) HandleGetConfig(c *fiber.Ctx) error {
	return c.JSON(h.service.sup.Settings())
}

// HandleUpdateConfig validates and applies a settings patch. When the
// reader is connected the session is re-established with the new
// settings; reading is never auto-started.
func (h *Handler) HandleUpdateConfig(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var patch SettingsPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "invalid request body",
		})
	}

	settings, err := h.service.UpdateSettings(c.Context(), patch)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return busyResponse(c)
		}
		l.Warn("Config update rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true, "message": "configuration updated", "config": settings,
	})
}

// HandleConnect establishes the device session.
func (h *Handler) HandleConnect(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.Connect(c.Context()); err != nil {
		if errors.Is(err, ErrBusy) {
			return busyResponse(c)
		}
		l.Error("Connect failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false, "message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true, "message": "connected to RFID reader"})
}

// HandleDisconnect tears the device session down.
func (h *Handler) HandleDisconnect(c *fiber.Ctx) error {
	if err := h.service.Disconnect(c.Context()); err != nil {
		if errors.Is(err, ErrBusy) {
			return busyResponse(c)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true, "message": "disconnected from RFID reader"})
}

// HandleStartReading begins continuous reading.
func (h *Handler) HandleStartReading(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.StartReading(c.Context()); err != nil {
		if errors.Is(err, ErrBusy) {
			return busyResponse(c)
		}
		l.Error("Start reading failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false, "message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true, "message": "reading started"})
}

// HandleStopReading halts continuous reading.
func (h *Handler) HandleStopReading(c *fiber.Ctx) error {
	if err := h.service.StopReading(c.Context()); err != nil {
		if errors.Is(err, ErrBusy) {
			return busyResponse(c)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true, "message": "reading stopped"})
}

// HandleApplyPower changes transmit power on the live session.
func (h *Handler) HandleApplyPower(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var body struct {
		Power *int `json:"power"`
	}
	if err := c.BodyParser(&body); err != nil || body.Power == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "power is required",
		})
	}

	if err := h.service.ApplyPower(c.Context(), *body.Power); err != nil {
		l.Warn("Power update rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true, "power": *body.Power})
}

func busyResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"success": false, "message": ErrBusy.Error(),
	})
}
