package inventory

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rfid-portal/core/events"
	"rfid-portal/core/storage"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the inventory feature. The service is exposed so
// startup can restore the persisted snapshot before serving.
func NewFeature(cfg Config, index *Index, db *gorm.DB, archive storage.Client, bucket string, pub events.Publisher, logger *zap.Logger) *Feature {
	svc := NewService(cfg, index, db, archive, bucket, pub, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Service returns the underlying inventory service.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "inventory"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
