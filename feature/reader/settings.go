package reader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var dottedQuad = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// Settings are the runtime-changeable device settings. They start from
// Config defaults and can be replaced through the API; changing them on
// a live session triggers a reconnect with the new values.
type Settings struct {
	IP                string `json:"ip"`
	Port              int    `json:"port"`
	Power             int    `json:"power"`
	Antennas          []int  `json:"antennas"`
	SoundEnabled      bool   `json:"soundEnabled"`
	MatchSoundEnabled bool   `json:"matchSoundEnabled"`
}

// SettingsPatch is a partial settings update. Nil fields keep their
// current value.
type SettingsPatch struct {
	IP                *string `json:"ip"`
	Port              *int    `json:"port"`
	Power             *int    `json:"power"`
	Antennas          []int   `json:"antennas"`
	SoundEnabled      *bool   `json:"soundEnabled"`
	MatchSoundEnabled *bool   `json:"matchSoundEnabled"`
}

// SettingsFromConfig builds the initial settings from configuration.
func SettingsFromConfig(cfg Config) (Settings, error) {
	antennas, err := parseAntennas(cfg.Antennas)
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		IP:                cfg.IP,
		Port:              cfg.Port,
		Power:             cfg.Power,
		Antennas:          antennas,
		SoundEnabled:      cfg.SoundEnabled,
		MatchSoundEnabled: cfg.MatchSoundEnabled,
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings the reader cannot accept. It is called
// before any state change so invalid input never reaches the device.
func (s Settings) Validate() error {
	if !dottedQuad.MatchString(s.IP) {
		return fmt.Errorf("invalid reader IP %q", s.IP)
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid reader port %d: must be in [1,65535]", s.Port)
	}
	if s.Power < 0 || s.Power > 30 {
		return fmt.Errorf("invalid power %d dBm: must be in [0,30]", s.Power)
	}
	for _, a := range s.Antennas {
		if a < 1 || a > 4 {
			return fmt.Errorf("invalid antenna %d: must be in [1,4]", a)
		}
	}
	return nil
}

// Apply merges a patch into a copy of the settings and validates the
// result. The receiver is not modified.
func (s Settings) Apply(p SettingsPatch) (Settings, error) {
	next := s
	next.Antennas = append([]int(nil), s.Antennas...)
	if p.IP != nil {
		next.IP = *p.IP
	}
	if p.Port != nil {
		next.Port = *p.Port
	}
	if p.Power != nil {
		next.Power = *p.Power
	}
	if p.Antennas != nil {
		next.Antennas = append([]int(nil), p.Antennas...)
	}
	if p.SoundEnabled != nil {
		next.SoundEnabled = *p.SoundEnabled
	}
	if p.MatchSoundEnabled != nil {
		next.MatchSoundEnabled = *p.MatchSoundEnabled
	}
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	return next, nil
}

// Addr returns the host:port dial target.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.IP, s.Port)
}

func parseAntennas(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	antennas := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid antenna list %q: %w", raw, err)
		}
		antennas = append(antennas, n)
	}
	return antennas, nil
}
