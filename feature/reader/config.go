package reader

import "time"

// Config holds device defaults and session supervision settings.
// Device settings (IP, power, antennas) can be changed at runtime via
// the API; the intervals and retry budgets are fixed at startup.
type Config struct {
	// IP is the reader address.
	IP string `mapstructure:"ip" default:"192.168.99.201"`
	// Port is the reader TCP port.
	Port int `mapstructure:"port" default:"8888"`
	// Power is the transmit power in dBm (0-30).
	Power int `mapstructure:"power" default:"20"`
	// Antennas is the comma-separated list of active antennas (1-4).
	Antennas string `mapstructure:"antennas" default:"1,2,3,4"`
	// SoundEnabled toggles the reader beep on every read.
	SoundEnabled bool `mapstructure:"sound_enabled" default:"true"`
	// MatchSoundEnabled toggles the dashboard sound on inventory matches.
	MatchSoundEnabled bool `mapstructure:"match_sound_enabled" default:"true"`
	// Driver selects the device implementation (chainway or emulator).
	Driver string `mapstructure:"driver" default:"chainway"`

	// BufferSize caps the in-memory reading history.
	BufferSize int `mapstructure:"buffer_size" default:"100"`

	// KeepAliveSeconds is the interval of the keep-alive task.
	KeepAliveSeconds int `mapstructure:"keep_alive_seconds" default:"30"`
	// ConnectionCheckSeconds is the interval of the activity check.
	ConnectionCheckSeconds int `mapstructure:"connection_check_seconds" default:"10"`
	// MaxInactivitySeconds is how long without any device activity the
	// session is declared stale.
	MaxInactivitySeconds int `mapstructure:"max_inactivity_seconds" default:"60"`
	// ReadHealthSeconds is the interval of the read-health check.
	ReadHealthSeconds int `mapstructure:"read_health_seconds" default:"20"`
	// ReadStallSeconds is how long a reading session may go without data
	// before it is restarted.
	ReadStallSeconds int `mapstructure:"read_stall_seconds" default:"45"`
	// AutoRestartSeconds is the interval of the preventive stop/start
	// reading cycle. 0 disables it.
	AutoRestartSeconds int `mapstructure:"auto_restart_seconds" default:"40"`

	// MaxReconnectAttempts bounds reconnection after a lost session.
	MaxReconnectAttempts int `mapstructure:"max_reconnect_attempts" default:"5"`
	// MaxRestartAttempts bounds automatic read restarts before the fault
	// is surfaced and a manual start is required.
	MaxRestartAttempts int `mapstructure:"max_restart_attempts" default:"3"`
	// ReconnectDelaySeconds is the initial reconnect backoff delay.
	ReconnectDelaySeconds int `mapstructure:"reconnect_delay_seconds" default:"1"`
	// ReconnectMaxDelaySeconds caps the reconnect backoff delay.
	ReconnectMaxDelaySeconds int `mapstructure:"reconnect_max_delay_seconds" default:"30"`
}

func (c Config) keepAliveInterval() time.Duration {
	return time.Duration(c.KeepAliveSeconds) * time.Second
}

func (c Config) connectionCheckInterval() time.Duration {
	return time.Duration(c.ConnectionCheckSeconds) * time.Second
}

func (c Config) maxInactivity() time.Duration {
	return time.Duration(c.MaxInactivitySeconds) * time.Second
}

func (c Config) readHealthInterval() time.Duration {
	return time.Duration(c.ReadHealthSeconds) * time.Second
}

func (c Config) readStallThreshold() time.Duration {
	return time.Duration(c.ReadStallSeconds) * time.Second
}

func (c Config) autoRestartInterval() time.Duration {
	return time.Duration(c.AutoRestartSeconds) * time.Second
}

// ReconnectPolicy builds the bounded retry policy shared by the
// reconnect and auto-restart paths.
func (c Config) ReconnectPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  c.MaxReconnectAttempts,
		InitialDelay: time.Duration(c.ReconnectDelaySeconds) * time.Second,
		MaxDelay:     time.Duration(c.ReconnectMaxDelaySeconds) * time.Second,
	}
}
