package reader

import "time"

// TagReading is one decoded tag read. Immutable once created.
type TagReading struct {
	// ID uniquely identifies this reading.
	ID string `json:"id"`
	// Seq is the monotonically increasing arrival number.
	Seq uint64 `json:"seq"`
	// TID is the chip-unique identifier and the primary correlation key.
	TID string `json:"tid"`
	// EPC is the addressable code programmed into the tag.
	EPC string `json:"epc"`
	// RSSI is the signal strength reported by the reader.
	RSSI int `json:"rssi"`
	// Antenna is the antenna index that saw the tag.
	Antenna int `json:"antenna"`
	// Timestamp is the capture time.
	Timestamp time.Time `json:"timestamp"`
}

// Status is the externally visible session snapshot.
type Status struct {
	Connected     bool       `json:"isConnected"`
	Reading       bool       `json:"isReading"`
	State         string     `json:"state"`
	TotalReadings uint64     `json:"totalReadings"`
	UniqueTags    int        `json:"uniqueTIDs"`
	LastReadAt    *time.Time `json:"lastReadAt,omitempty"`
	Config        Settings   `json:"config"`
}
