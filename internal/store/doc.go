// Package store provides persistence for quanta using SQLite.
//
// # Overview
//
// The package defines two interfaces:
//
//   - Store: content and student persistence (subjects, lessons, practice
//     questions, students, results, progress, analytics aggregates)
//   - AdminStore: admin credential records and admin browser sessions
//
// SQLiteStore implements both against a single database file using
// modernc.org/sqlite (pure Go, no cgo). The schema is created automatically
// on startup and uses WAL mode for concurrent reads.
//
// MockStore provides an in-memory Store implementation for tests that don't
// need a real database.
//
// # Conventions
//
// Timestamps are stored as RFC3339 strings in UTC. Entity IDs are UUIDs
// generated by the caller (or by the store when left empty). "Not found"
// conditions are reported with sentinel errors (ErrNotFound,
// ErrAdminNotFound, ErrAdminSessionNotFound) so callers can distinguish
// them from transient database failures with errors.Is.
package store
