package store

// Config holds configuration for the local snapshot database.
type Config struct {
	// Path is the SQLite database file. ":memory:" is accepted for tests.
	Path string `mapstructure:"path" default:"data/portal.db"`
}
