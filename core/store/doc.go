// Package store provides the local SQLite database used to persist the
// last completed inventory snapshot across restarts.
//
// The database holds a single snapshot row that is replaced wholesale
// on every successful spreadsheet load. Recovery is best effort: a
// missing or unreadable database simply yields an empty inventory.
package store
