// Package inventory turns uploaded spreadsheets into the lookup index
// the match engine correlates tag reads against.
//
// Rows become Items: dynamically-typed field maps with one normalized
// correlation key resolved from a detected identifier column. Items are
// indexed into immutable Snapshots published through an atomic swap;
// large uploads are processed in fixed-size chunks with progress
// events, a hard memory cap and supersession by newer uploads.
//
// Completed snapshots are persisted to the local SQLite store and
// restored, best effort, on startup.
package inventory
