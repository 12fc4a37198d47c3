package reader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rfid-portal/core/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the session state. Transitions are driven only by the
// supervisor; at most one state is active per device target.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReading
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReading:
		return "reading"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when a session transition is requested while
// another one is still in flight.
var ErrBusy = errors.New("session transition already in flight")

// Sink receives every accepted reading, in arrival order.
type Sink func(TagReading)

// Supervisor owns the session with one reader device.
//
// It is safe for concurrent use: explicit requests (API), periodic
// tasks and the device event pump interleave arbitrarily, but every
// session transition runs under a single in-flight guard and shared
// state is only touched under the mutex.
type Supervisor struct {
	cfg    Config
	logger *zap.Logger
	pub    events.Publisher
	dev    Device
	buffer *Buffer
	policy RetryPolicy
	sched  *Scheduler
	clock  func() time.Time
	sink   Sink

	mu              sync.Mutex
	state           State
	settings        Settings
	desiredConnect  bool
	desiredReading  bool
	lastActivity    time.Time
	lastRead        time.Time
	seq             uint64
	transitioning   bool
	restartAttempts int
	pumpGen         int

	shuttingDown atomic.Bool
	shutdownOnce sync.Once
}

// NewSupervisor builds a supervisor for the given device. It does not
// connect; call Connect (or let the API do it).
func NewSupervisor(cfg Config, dev Device, buffer *Buffer, pub events.Publisher, logger *zap.Logger) (*Supervisor, error) {
	settings, err := SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		cfg:      cfg,
		logger:   logger,
		pub:      pub,
		dev:      dev,
		buffer:   buffer,
		policy:   cfg.ReconnectPolicy(),
		sched:    NewScheduler(logger),
		clock:    time.Now,
		settings: settings,
		state:    StateDisconnected,
	}

	s.sched.Register("keep-alive", cfg.keepAliveInterval(), s.keepAlive)
	s.sched.Register("connection-check", cfg.connectionCheckInterval(), s.checkConnection)
	s.sched.Register("read-health", cfg.readHealthInterval(), s.checkReadHealth)
	s.sched.Register("auto-restart", cfg.autoRestartInterval(), s.autoRestartCycle)

	return s, nil
}

// SetSink installs the downstream consumer of accepted readings. Must
// be called before Connect.
func (s *Supervisor) SetSink(sink Sink) {
	s.sink = sink
}

// begin acquires the single in-flight transition guard.
func (s *Supervisor) begin() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transitioning {
		return nil, ErrBusy
	}
	s.transitioning = true
	return func() {
		s.mu.Lock()
		s.transitioning = false
		s.mu.Unlock()
	}, nil
}

// tryBegin is begin for periodic tasks: when a transition is already
// in flight the task simply skips this cycle.
func (s *Supervisor) tryBegin() (func(), bool) {
	end, err := s.begin()
	return end, err == nil
}

// Connect establishes the device session and starts the periodic
// tasks. Connecting while connected is a no-op.
func (s *Supervisor) Connect(ctx context.Context) error {
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.desiredConnect = true
	settings := s.settings
	s.mu.Unlock()

	if err := s.dev.Connect(ctx, settings); err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		s.publishStatus()
		return fmt.Errorf("failed to connect to reader at %s: %w", settings.Addr(), err)
	}

	s.mu.Lock()
	s.state = StateConnected
	s.lastActivity = s.clock()
	s.pumpGen++
	gen := s.pumpGen
	s.mu.Unlock()

	go s.pump(s.dev.Events(), gen)
	s.sched.StartAll()
	s.publishStatus()
	s.logger.Info("Reader connected",
		zap.String("addr", settings.Addr()),
		zap.Int("power_dbm", settings.Power),
		zap.Ints("antennas", settings.Antennas))
	return nil
}

// Disconnect tears the session down from any state and cancels all
// periodic tasks.
func (s *Supervisor) Disconnect(ctx context.Context) error {
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	s.disconnectLocked(ctx, true)
	return nil
}

// disconnectLocked performs the teardown. Callers must hold the
// transition guard. Device errors are non-fatal: the state always
// lands on Disconnected.
func (s *Supervisor) disconnectLocked(ctx context.Context, clearDesired bool) {
	s.sched.StopAll()

	s.mu.Lock()
	wasReading := s.state == StateReading
	s.pumpGen++ // orphan any running pump
	s.mu.Unlock()

	if wasReading {
		if err := s.dev.StopScan(ctx); err != nil {
			s.logger.Warn("Failed to stop scan during disconnect", zap.Error(err))
		}
	}
	if err := s.dev.Close(); err != nil {
		s.logger.Warn("Failed to close device", zap.Error(err))
	}

	s.mu.Lock()
	s.state = StateDisconnected
	if clearDesired {
		s.desiredConnect = false
		s.desiredReading = false
	}
	s.lastActivity = time.Time{}
	s.lastRead = time.Time{}
	s.mu.Unlock()

	s.publishStatus()
	s.logger.Info("Reader disconnected")
}

// StartReading begins continuous tag reading. Requesting it while
// disconnected is a no-op with no state change.
func (s *Supervisor) StartReading(ctx context.Context) error {
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case StateDisconnected, StateConnecting:
		s.logger.Warn("Start-read requested without a connected reader")
		return nil
	case StateReading:
		return nil
	}

	if err := s.dev.StartScan(ctx); err != nil {
		return fmt.Errorf("failed to start reading: %w", err)
	}

	now := s.clock()
	s.mu.Lock()
	s.state = StateReading
	s.desiredReading = true
	s.lastActivity = now
	s.lastRead = now
	s.restartAttempts = 0
	s.mu.Unlock()

	s.pub.Publish(events.EventReadingStatus, map[string]any{"isReading": true})
	s.logger.Info("Continuous reading started")
	return nil
}

// StopReading halts continuous reading. A device error is logged and
// treated as non-fatal; the state is forced to Connected either way.
func (s *Supervisor) StopReading(ctx context.Context) error {
	end, err := s.begin()
	if err != nil {
		return err
	}
	defer end()

	s.mu.Lock()
	if s.state != StateReading {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.dev.StopScan(ctx); err != nil {
		s.logger.Warn("Failed to stop scan, forcing state", zap.Error(err))
	}

	s.mu.Lock()
	s.state = StateConnected
	s.desiredReading = false
	s.lastRead = time.Time{}
	s.mu.Unlock()

	s.pub.Publish(events.EventReadingStatus, map[string]any{"isReading": false})
	s.logger.Info("Continuous reading stopped")
	return nil
}

// ClearReadings resets the reading history and counters.
func (s *Supervisor) ClearReadings() {
	s.buffer.Clear()
	s.publishAggregate()
}

// Status returns the current session snapshot.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Connected:     s.state == StateConnected || s.state == StateReading,
		Reading:       s.state == StateReading,
		State:         s.state.String(),
		TotalReadings: s.buffer.Total(),
		UniqueTags:    s.buffer.Distinct(),
		Config:        s.settings,
	}
	if !s.lastRead.IsZero() {
		t := s.lastRead
		st.LastReadAt = &t
	}
	return st
}

// Settings returns the current device settings.
func (s *Supervisor) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Readings returns the buffered reading history in arrival order.
func (s *Supervisor) Readings() []TagReading {
	return s.buffer.Snapshot()
}

// UpdateSettings validates and applies a settings patch. When the
// session is live it is torn down and re-established with the new
// settings; reading is never auto-started after a config change.
func (s *Supervisor) UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error) {
	s.mu.Lock()
	next, err := s.settings.Apply(patch)
	if err != nil {
		s.mu.Unlock()
		return Settings{}, err
	}
	s.settings = next
	wasConnected := s.state == StateConnected || s.state == StateReading
	s.mu.Unlock()

	if wasConnected {
		s.logger.Info("Reconnecting with new settings", zap.String("addr", next.Addr()))
		if err := s.Disconnect(ctx); err != nil {
			return Settings{}, err
		}
		if err := s.Connect(ctx); err != nil {
			// Settings are kept; the caller can retry the connection.
			return next, fmt.Errorf("settings saved but reconnect failed: %w", err)
		}
	}
	return next, nil
}

// ApplyPower updates the transmit power and, on a live session, pushes
// the vendor power command immediately. A device write failure keeps
// the new setting and is reported as non-fatal, matching the reader's
// behavior of picking the value up on the next connect.
func (s *Supervisor) ApplyPower(ctx context.Context, power int) error {
	if power < 0 || power > 30 {
		return fmt.Errorf("invalid power %d dBm: must be in [0,30]", power)
	}
	if power > 25 {
		s.logger.Warn("High transmit power configured, expect interference", zap.Int("power_dbm", power))
	}

	s.mu.Lock()
	s.settings.Power = power
	connected := s.state == StateConnected || s.state == StateReading
	s.mu.Unlock()

	if connected {
		if err := s.dev.Send(ctx, CommandSetPower(power)); err != nil {
			s.logger.Warn("Failed to push power command, will apply on next connect", zap.Error(err))
		}
	}
	s.pub.Publish(events.EventPowerUpdated, map[string]any{"power": power})
	return nil
}

// Shutdown is the single idempotent graceful-shutdown path: stop all
// timers, best-effort disconnect, and leave the supervisor inert.
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		s.shuttingDown.Store(true)
		s.logger.Info("Shutting down reader session")
		s.sched.StopAll()

		s.mu.Lock()
		wasReading := s.state == StateReading
		s.state = StateDisconnected
		s.desiredConnect = false
		s.desiredReading = false
		s.pumpGen++
		s.mu.Unlock()

		if wasReading {
			if err := s.dev.StopScan(ctx); err != nil {
				s.logger.Warn("Failed to stop scan during shutdown", zap.Error(err))
			}
		}
		if err := s.dev.Close(); err != nil {
			s.logger.Warn("Failed to close device during shutdown", zap.Error(err))
		}
	})
}

// pump consumes decoded tag events for one connection generation. The
// channel closing signals connection loss.
func (s *Supervisor) pump(ch <-chan TagEvent, gen int) {
	if ch == nil {
		return
	}
	for ev := range ch {
		if s.shuttingDown.Load() {
			return
		}
		s.mu.Lock()
		stale := gen != s.pumpGen
		s.mu.Unlock()
		if stale {
			return
		}
		s.handleEvent(ev)
	}

	s.mu.Lock()
	lost := gen == s.pumpGen && s.desiredConnect && s.state != StateDisconnected
	s.mu.Unlock()
	if lost {
		s.handleConnectionLoss("device event stream closed")
	}
}

// handleEvent turns one device event into a reading and fans it out.
// It must stay fast and non-blocking: it runs on the event pump.
func (s *Supervisor) handleEvent(ev TagEvent) {
	now := s.clock()

	s.mu.Lock()
	s.seq++
	r := TagReading{
		ID:        uuid.NewString(),
		Seq:       s.seq,
		TID:       strings.ToUpper(strings.TrimSpace(ev.TID)),
		EPC:       strings.ToUpper(strings.TrimSpace(ev.EPC)),
		RSSI:      ev.RSSI,
		Antenna:   ev.Antenna,
		Timestamp: now,
	}
	s.lastActivity = now
	s.lastRead = now
	s.mu.Unlock()

	s.buffer.Add(r)
	s.pub.Publish(events.EventReading, r)
	s.publishAggregate()

	if s.sink != nil {
		s.sink(r)
	}
}

// keepAlive restores the desired session state: reconnect when the
// link is down, restart reading when it silently stopped.
func (s *Supervisor) keepAlive() {
	if s.shuttingDown.Load() {
		return
	}

	s.mu.Lock()
	state := s.state
	wantConnect := s.desiredConnect
	wantReading := s.desiredReading
	s.mu.Unlock()

	if state == StateDisconnected && wantConnect {
		s.recoverLoss("keep-alive found session down")
		return
	}
	if state == StateConnected && wantReading {
		s.restartReading("keep-alive found reading stopped")
	}
}

// checkConnection declares the session stale after too long without
// any device activity while reading.
func (s *Supervisor) checkConnection() {
	if s.shuttingDown.Load() {
		return
	}

	s.mu.Lock()
	reading := s.state == StateReading
	idle := !s.lastActivity.IsZero() && s.clock().Sub(s.lastActivity) > s.cfg.maxInactivity()
	s.mu.Unlock()

	if reading && idle {
		s.recoverLoss("no device activity within inactivity window")
	}
}

// recoverLoss hands connection recovery off to its own goroutine.
// Scheduler tasks must never run it inline: recovery stops the whole
// task group, and StopAll waits for the calling task to return.
func (s *Supervisor) recoverLoss(reason string) {
	go s.handleConnectionLoss(reason)
}

// checkReadHealth restarts a stalled reading session, bounded by the
// restart budget; once over budget the fault is surfaced and reading
// waits for a manual start.
func (s *Supervisor) checkReadHealth() {
	if s.shuttingDown.Load() {
		return
	}

	s.mu.Lock()
	stalled := s.state == StateReading &&
		!s.lastRead.IsZero() &&
		s.clock().Sub(s.lastRead) > s.cfg.readStallThreshold()
	s.mu.Unlock()

	if stalled {
		s.restartReading("no data within read-stall window")
	}
}

// autoRestartCycle preventively stops and restarts a healthy reading
// session. Some readers accumulate state until their inventory round
// is restarted.
func (s *Supervisor) autoRestartCycle() {
	if s.shuttingDown.Load() {
		return
	}

	s.mu.Lock()
	reading := s.state == StateReading
	s.mu.Unlock()
	if !reading {
		return
	}

	end, ok := s.tryBegin()
	if !ok {
		return
	}
	defer end()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.dev.StopScan(ctx); err != nil {
		s.logger.Warn("Auto-restart: stop scan failed", zap.Error(err))
	}
	if err := s.dev.StartScan(ctx); err != nil {
		s.logger.Warn("Auto-restart: start scan failed", zap.Error(err))
		s.mu.Lock()
		s.state = StateConnected
		s.mu.Unlock()
		return
	}

	now := s.clock()
	s.mu.Lock()
	s.lastRead = now
	s.lastActivity = now
	s.restartAttempts = 0
	s.mu.Unlock()
	s.logger.Debug("Auto-restart cycle completed")
}

// restartReading performs one internal stop+start cycle under the
// restart budget.
func (s *Supervisor) restartReading(reason string) {
	end, ok := s.tryBegin()
	if !ok {
		return
	}
	defer end()

	s.mu.Lock()
	s.restartAttempts++
	attempt := s.restartAttempts
	s.mu.Unlock()

	if attempt > s.cfg.MaxRestartAttempts {
		s.logger.Error("Read restart budget exhausted, waiting for manual start",
			zap.String("reason", reason),
			zap.Int("attempts", attempt-1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.dev.StopScan(ctx); err != nil {
			s.logger.Warn("Failed to stop stalled scan", zap.Error(err))
		}
		s.mu.Lock()
		if s.state == StateReading {
			s.state = StateConnected
		}
		s.desiredReading = false
		s.mu.Unlock()
		s.pub.Publish(events.EventReadingStatus, map[string]any{"isReading": false})
		return
	}

	s.logger.Warn("Restarting reading",
		zap.String("reason", reason),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", s.cfg.MaxRestartAttempts))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.dev.StopScan(ctx); err != nil {
		s.logger.Warn("Restart: stop scan failed", zap.Error(err))
	}
	if err := s.dev.StartScan(ctx); err != nil {
		s.logger.Warn("Restart: start scan failed", zap.Error(err))
		s.mu.Lock()
		if s.state == StateReading {
			s.state = StateConnected
		}
		s.mu.Unlock()
		return
	}

	now := s.clock()
	s.mu.Lock()
	s.state = StateReading
	s.lastRead = now
	s.lastActivity = now
	s.mu.Unlock()
	s.logger.Info("Reading restarted")
}

// handleConnectionLoss tears the session down and reconnects under the
// retry policy, restoring the previous desired state on success.
// Reading is only restarted when it was the prior desired state.
func (s *Supervisor) handleConnectionLoss(reason string) {
	end, ok := s.tryBegin()
	if !ok {
		return
	}
	defer end()

	s.logger.Warn("Connection lost", zap.String("reason", reason))
	s.sched.StopAll()
	_ = s.dev.Close()

	s.mu.Lock()
	wantReading := s.desiredReading
	s.state = StateDisconnected
	s.pumpGen++
	settings := s.settings
	s.mu.Unlock()
	s.publishStatus()

	for attempt := 1; ; attempt++ {
		if s.shuttingDown.Load() {
			return
		}
		if s.policy.Exhausted(attempt) {
			s.logger.Error("Reconnect budget exhausted, staying disconnected",
				zap.Int("attempts", s.policy.MaxAttempts))
			s.mu.Lock()
			s.desiredConnect = false
			s.desiredReading = false
			s.mu.Unlock()
			s.publishStatus()
			return
		}
		if d := s.policy.Delay(attempt); d > 0 {
			time.Sleep(d)
		}
		if s.shuttingDown.Load() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := s.dev.Connect(ctx, settings)
		cancel()
		if err == nil {
			break
		}
		s.logger.Warn("Reconnect attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.policy.MaxAttempts),
			zap.Error(err))
	}

	now := s.clock()
	s.mu.Lock()
	s.state = StateConnected
	s.lastActivity = now
	s.pumpGen++
	gen := s.pumpGen
	s.mu.Unlock()

	go s.pump(s.dev.Events(), gen)
	s.sched.StartAll()
	s.publishStatus()
	s.logger.Info("Reconnected", zap.String("addr", settings.Addr()))

	if wantReading {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.dev.StartScan(ctx); err != nil {
			s.logger.Warn("Failed to resume reading after reconnect", zap.Error(err))
			return
		}
		now := s.clock()
		s.mu.Lock()
		s.state = StateReading
		s.lastRead = now
		s.mu.Unlock()
		s.pub.Publish(events.EventReadingStatus, map[string]any{"isReading": true})
		s.logger.Info("Reading resumed after reconnect")
	}
}

func (s *Supervisor) publishStatus() {
	s.pub.Publish(events.EventConnectionStatus, s.Status())
}

func (s *Supervisor) publishAggregate() {
	s.pub.Publish(events.EventReadingsUpdate, map[string]any{
		"totalReadings": s.buffer.Total(),
		"uniqueTIDs":    s.buffer.Distinct(),
	})
}
