package reader

import (
	"context"

	"go.uber.org/zap"
)

// Service exposes the session operations consumed by the HTTP handler.
type Service struct {
	sup    *Supervisor
	logger *zap.Logger
}

// NewService wraps a supervisor.
func NewService(sup *Supervisor, logger *zap.Logger) *Service {
	return &Service{sup: sup, logger: logger}
}

// Supervisor returns the underlying session supervisor.
func (s *Service) Supervisor() *Supervisor {
	return s.sup
}

func (s *Service) Connect(ctx context.Context) error {
	return s.sup.Connect(ctx)
}

func (s *Service) Disconnect(ctx context.Context) error {
	return s.sup.Disconnect(ctx)
}

func (s *Service) StartReading(ctx context.Context) error {
	return s.sup.StartReading(ctx)
}

func (s *Service) StopReading(ctx context.Context) error {
	return s.sup.StopReading(ctx)
}

func (s *Service) ClearReadings() {
	s.sup.ClearReadings()
}

func (s *Service) Status() Status {
	return s.sup.Status()
}

func (s *Service) Readings() []TagReading {
	return s.sup.Readings()
}

func (s *Service) UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error) {
	return s.sup.UpdateSettings(ctx, patch)
}

func (s *Service) ApplyPower(ctx context.Context, power int) error {
	return s.sup.ApplyPower(ctx, power)
}
