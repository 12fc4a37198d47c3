package match

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rfid-portal/core/events"
	"rfid-portal/feature/inventory"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	engine     *Engine
	dispatcher *Dispatcher
	service    *Service
	handler    *Handler
}

// NewFeature builds the full match pipeline over the inventory index.
func NewFeature(cfg Config, index *inventory.Index, pub events.Publisher, logger *zap.Logger) *Feature {
	dispatcher := NewDispatcher(cfg.flushInterval(), cfg.MaxPerFlush, pub, logger)
	engine := NewEngine(cfg, index, dispatcher, logger)
	svc := NewService(engine, dispatcher, logger)
	return &Feature{
		engine:     engine,
		dispatcher: dispatcher,
		service:    svc,
		handler:    NewHandler(svc),
	}
}

// Engine returns the pipeline for wiring into the reader's sink.
func (f *Feature) Engine() *Engine {
	return f.engine
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "match"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load starts the pipeline and registers its routes.
func (f *Feature) Load(app fiber.Router) error {
	f.engine.Start()
	f.handler.RegisterRoutes(app)
	return nil
}
