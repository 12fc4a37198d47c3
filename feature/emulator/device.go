package emulator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"rfid-portal/feature/reader"
)

// Config controls the synthetic reader.
type Config struct {
	// TagCount is the size of the generated tag pool when Tags is
	// empty.
	TagCount int `mapstructure:"tag_count" default:"8"`
	// IntervalMillis is the delay between emitted reads while
	// scanning.
	IntervalMillis int `mapstructure:"interval_millis" default:"250"`
	// Tags pins the pool to explicit TIDs.
	Tags []string `mapstructure:"tags"`
}

// Device is an in-process reader.Device. Connect builds a tag pool,
// StartScan emits random reads from it, Close closes the event
// channel the way a dropped TCP session would.
type Device struct {
	cfg    Config
	logger *zap.Logger

	mu        sync.Mutex
	events    chan reader.TagEvent
	scanStop  chan struct{}
	wg        sync.WaitGroup
	connected bool
	pool      []reader.TagEvent
	rng       *rand.Rand
}

func NewDevice(cfg Config, logger *zap.Logger) *Device {
	if cfg.TagCount <= 0 {
		cfg.TagCount = 8
	}
	if cfg.IntervalMillis <= 0 {
		cfg.IntervalMillis = 250
	}
	return &Device{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Connect brings the emulated session up.
func (d *Device) Connect(ctx context.Context, settings reader.Settings) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected {
		return fmt.Errorf("emulator already connected")
	}
	d.pool = d.buildPool(settings)
	d.events = make(chan reader.TagEvent, 64)
	d.connected = true
	d.logger.Info("emulated reader connected",
		zap.String("addr", settings.Addr()),
		zap.Int("pool", len(d.pool)))
	return nil
}

func (d *Device) buildPool(settings reader.Settings) []reader.TagEvent {
	antennas := settings.Antennas
	if len(antennas) == 0 {
		antennas = []int{1}
	}
	tids := d.cfg.Tags
	if len(tids) == 0 {
		tids = make([]string, d.cfg.TagCount)
		for i := range tids {
			tids[i] = fmt.Sprintf("E28011%010X", i+1)
		}
	}
	pool := make([]reader.TagEvent, len(tids))
	for i, tid := range tids {
		pool[i] = reader.TagEvent{
			TID:     tid,
			EPC:     fmt.Sprintf("EPC%09d", i+1),
			Antenna: antennas[i%len(antennas)],
		}
	}
	return pool
}

// StartScan begins emitting random reads from the pool.
func (d *Device) StartScan(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return fmt.Errorf("emulator not connected")
	}
	if d.scanStop != nil {
		return nil
	}
	stop := make(chan struct{})
	d.scanStop = stop
	d.wg.Add(1)
	go d.emit(stop, d.events)
	return nil
}

func (d *Device) emit(stop <-chan struct{}, out chan<- reader.TagEvent) {
	defer d.wg.Done()
	ticker := time.NewTicker(time.Duration(d.cfg.IntervalMillis) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.mu.Lock()
			ev := d.pool[d.rng.Intn(len(d.pool))]
			ev.RSSI = -40 - d.rng.Intn(30)
			d.mu.Unlock()
			select {
			case out <- ev:
			case <-stop:
				return
			}
		}
	}
}

// StopScan halts emission.
func (d *Device) StopScan(ctx context.Context) error {
	d.mu.Lock()
	stop := d.scanStop
	d.scanStop = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		d.wg.Wait()
	}
	return nil
}

// Send accepts any frame; the emulator has no wire protocol.
func (d *Device) Send(ctx context.Context, frame []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return fmt.Errorf("emulator not connected")
	}
	return nil
}

// Events returns the event channel of the current session.
func (d *Device) Events() <-chan reader.TagEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events
}

// Close drops the session and closes the event channel.
func (d *Device) Close() error {
	d.mu.Lock()
	stop := d.scanStop
	d.scanStop = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil
	}
	d.connected = false
	close(d.events)
	d.logger.Info("emulated reader closed")
	return nil
}
