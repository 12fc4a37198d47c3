package inventory

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rfid-portal/core/logger"
)

// Handler handles HTTP requests for the inventory.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the inventory routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	grp := app.Group("/inventory")
	grp.Post("/upload", h.HandleUpload)
	grp.Get("/data", h.HandleData)
	grp.Get("/search", h.HandleSearch)
	grp.Delete("/clear", h.HandleClear)
	grp.Get("/status", h.HandleStatus)
}

// HandleUpload accepts a multipart spreadsheet and replaces the
// current inventory with its contents.
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "file is required",
		})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "failed to open uploaded file",
		})
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "failed to read uploaded file",
		})
	}

	snap, err := h.service.Upload(c.Context(), fh.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooLarge):
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"success": false, "message": err.Error(),
			})
		case errors.Is(err, ErrUnsupportedFormat):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false, "message": err.Error(),
			})
		case errors.Is(err, ErrSuperseded):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false, "message": err.Error(),
			})
		}
		l.Error("Upload failed", zap.String("file", fh.Filename), zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false, "message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "inventory loaded",
		"totalItems": snap.Len(),
		"metadata":   snap.Meta,
	})
}

// HandleData returns the full inventory with its metadata.
func (h *Handler) HandleData(c *fiber.Ctx) error {
	items, meta := h.service.Data()
	return c.JSON(fiber.Map{"items": items, "metadata": meta})
}

// HandleSearch filters items by free-text query, optionally limited
// to a comma-separated column list.
func (h *Handler) HandleSearch(c *fiber.Ctx) error {
	var columns []string
	if raw := c.Query("columns"); raw != "" {
		for _, col := range strings.Split(raw, ",") {
			if col = strings.TrimSpace(col); col != "" {
				columns = append(columns, col)
			}
		}
	}
	items := h.service.Search(c.Query("q"), columns)
	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}

// HandleClear drops the inventory from memory and the store.
func (h *Handler) HandleClear(c *fiber.Ctx) error {
	if err := h.service.Clear(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true, "message": "inventory cleared"})
}

// HandleStatus summarizes what is currently loaded.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}
