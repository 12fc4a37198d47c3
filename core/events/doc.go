// Package events provides the realtime push transport for the RFID portal.
//
// It defines the Publisher interface used by all features to broadcast
// status, reading and match events, and a websocket Hub implementation
// that fans those events out to every connected dashboard client.
//
// # Publisher Interface
//
//	type Publisher interface {
//	    Publish(event string, payload any)
//	}
//
// Publish never blocks on slow clients: the hub writes with a deadline
// and drops connections that cannot keep up.
//
// # Events
//
// Event names mirror the dashboard contract (connection-status,
// rfid-reading, rfid-match-found, inventory-processing-progress, ...).
// The constants in this package are the single source of truth for them.
package events
