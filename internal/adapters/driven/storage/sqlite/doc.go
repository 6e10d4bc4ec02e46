// Package sqlite provides a unified SQLite-based implementation of the
// storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database connection backs two
// wrapper types:
//
//   - LocalStore: the device key/value store with change notifications
//   - DocumentStore: per-account remote documents served by the doc server
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Thread Safety
//
// All operations are thread-safe. Writes are serialised in process so that
// change notifications observe a consistent old value; readers rely on
// SQLite in WAL mode.
package sqlite
