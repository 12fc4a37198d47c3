package match

import "time"

// Config controls matching, deduplication and notification pacing.
type Config struct {
	// CooldownSeconds is how long a tag/item pair stays suppressed
	// after a match.
	CooldownSeconds int `mapstructure:"cooldown_seconds" default:"30"`
	// RatePerSecond caps how many readings per second enter matching.
	RatePerSecond int `mapstructure:"rate_per_second" default:"100"`
	// FlushIntervalMillis is the notification batch window.
	FlushIntervalMillis int `mapstructure:"flush_interval_millis" default:"100"`
	// MaxPerFlush bounds how many notifications one flush emits.
	MaxPerFlush int `mapstructure:"max_per_flush" default:"30"`
	// SweepSeconds is the interval between cooldown cleanups.
	SweepSeconds int `mapstructure:"sweep_seconds" default:"60"`
	// MaxCooldownEntries caps the cooldown set. A sweep that leaves
	// the set above the cap clears it entirely.
	MaxCooldownEntries int `mapstructure:"max_cooldown_entries" default:"10000"`
}

func (c Config) cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

func (c Config) flushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMillis) * time.Millisecond
}

func (c Config) sweepInterval() time.Duration {
	return time.Duration(c.SweepSeconds) * time.Second
}
