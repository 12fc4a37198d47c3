package inventory

// Config controls spreadsheet parsing and the batch loader.
type Config struct {
	// ChunkSize is the number of rows processed per batch when the
	// sheet is too large to index in one pass.
	ChunkSize int `mapstructure:"chunk_size" default:"1000"`
	// MaxItems caps the in-memory index. When a load would exceed it,
	// the oldest items are dropped and the most recent kept.
	MaxItems int `mapstructure:"max_items" default:"50000"`
	// Marker identifies the correlation key column: the first header
	// equal to it, else the first containing it, case-insensitive.
	Marker string `mapstructure:"marker" default:"uhf"`
	// MaxUploadMB limits the size of an uploaded spreadsheet.
	MaxUploadMB int `mapstructure:"max_upload_mb" default:"10"`
	// ChunkPauseMillis is the yield between batches of a chunked load.
	ChunkPauseMillis int `mapstructure:"chunk_pause_millis" default:"100"`
}

func (c Config) maxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// BodyLimit is the HTTP body size the server must accept so that an
// upload at the configured cap still reaches the handler. The extra
// megabyte covers multipart framing and form fields.
func (c Config) BodyLimit() int {
	return int(c.maxUploadBytes()) + 1<<20
}
