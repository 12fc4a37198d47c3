package events

// Event names pushed to dashboard clients.
const (
	// Reader lifecycle and readings.
	EventConnectionStatus = "connection-status"
	EventReadingStatus    = "reading-status"
	EventReading          = "rfid-reading"
	EventReadingsUpdate   = "readings-update"
	EventPowerUpdated     = "power-updated"

	// Inventory matching.
	EventMatchFound = "rfid-match-found"

	// Spreadsheet ingestion.
	EventInventoryUpdated             = "inventory-data-updated"
	EventInventoryProcessingStarted   = "inventory-processing-started"
	EventInventoryProcessingProgress  = "inventory-processing-progress"
	EventInventoryProcessingCompleted = "inventory-processing-completed"
	EventInventoryProcessingError     = "inventory-processing-error"
)

// Publisher broadcasts an event to all connected clients.
// Implementations must be safe for concurrent use and must not block
// the caller on slow consumers.
type Publisher interface {
	Publish(event string, payload any)
}

// Nop is a Publisher that discards everything. Useful as a default and
// in tests that do not inspect the event stream.
type Nop struct{}

func (Nop) Publish(string, any) {}
