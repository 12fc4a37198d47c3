// Package storage provides the optional object-storage archive for
// uploaded inventory spreadsheets.
//
// When enabled, every successfully loaded spreadsheet is copied to an
// S3-compatible bucket so operators can audit what was matched against.
// Archival failures are logged and never fail the upload itself.
package storage
