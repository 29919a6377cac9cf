// Package storage implements durable client-side storage for musicbox.
//
// A [Store] is a flat namespaced key/value space, the terminal counterpart of
// browser local storage. The session layer keeps exactly one entry in it.
//
// Implementations:
//   - [SQLiteStore] : persisted in a SQLite database, schema applied by [RunMigrations]
//   - [MemoryStore] : process-local, used in tests and when no storage path is configured
//
// Store errors are returned to callers; deciding whether a failure is fatal is
// the caller's business (the session layer swallows them).
package storage
