// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: document and chunk persistence
//   - RuleStore: compliance rule persistence
//   - ReviewStore: review task persistence
//   - SessionStore: explain session persistence
//
// # Schema
//
// The database schema is managed through versioned migrations embedded from
// the migrations/ directory and tracked in a schema_migrations table.
//
// # Data Location
//
// By default, the database is stored at ~/.trustlens/data/trustlens.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
