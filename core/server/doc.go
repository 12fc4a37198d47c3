// Package server holds configuration for the HTTP server.
//
// The portal exposes a small REST surface plus one websocket endpoint;
// this package only carries the listener settings shared by both.
package server
