package match

import (
	"go.uber.org/zap"

	"rfid-portal/feature/reader"
)

// Service exposes the match pipeline's admin operations.
type Service struct {
	engine     *Engine
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewService(engine *Engine, dispatcher *Dispatcher, logger *zap.Logger) *Service {
	return &Service{engine: engine, dispatcher: dispatcher, logger: logger}
}

// Offer feeds one reading into the pipeline.
func (s *Service) Offer(r reader.TagReading) {
	s.engine.Offer(r)
}

// ClearNotifications drops everything queued for dispatch.
func (s *Service) ClearNotifications() {
	s.dispatcher.Clear()
	s.logger.Info("pending match notifications cleared")
}

// ResetComparisons forgets all cooldowns.
func (s *Service) ResetComparisons() {
	s.engine.ResetComparisons()
}

// Status summarizes the pipeline.
func (s *Service) Status() map[string]any {
	return s.engine.Status()
}
