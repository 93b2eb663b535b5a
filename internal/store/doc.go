// Package store owns the erpdesk database file and the rows the session
// layer and configuration screens read and write.
//
// # Lifecycle
//
// A Manager knows where the file lives and nothing else. It never holds a
// connection between calls: each method opens a single-connection handle
// with Open, runs its statements and closes it. Concurrent writers, in this
// process or another, are serialized by SQLite's own file locking, with the
// busy timeout bounding how long a call waits.
//
// Initialize must have completed at least once in the store's history
// before anything else runs. It applies:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA synchronous=NORMAL;
//	PRAGMA cache_size=10000;
//	PRAGMA temp_store=MEMORY;
//	PRAGMA foreign_keys=ON;
//
// then creates every table and index with IF NOT EXISTS and seeds one
// administrator account and one organization if the bootstrap email has
// never been seeded.
//
// # Drivers
//
// Two database/sql drivers are registered:
//
//   - DriverSQLite: modernc.org/sqlite, pure Go, the default
//   - DriverSQLite3: github.com/mattn/go-sqlite3, requires cgo
//
// # Time
//
// Timestamps are UTC text in SQLite's datetime() form ("2006-01-02 15:04:05").
// Session expiry is computed and compared by the database clock, so a host
// with a skewed clock still agrees with the file about which sessions are
// valid.
//
// # Errors
//
//   - ErrNotFound: requested row does not exist
//   - ErrEmailExists: account email already taken
//   - ErrTaxIDExists: organization tax id already taken
//
// File and connection failures are apperr errors of kind
// storage_unavailable; a missing restore source is kind not_found.
//
// # Backup and restore
//
// Backup is a raw copy of the database file. It does not checkpoint the
// write-ahead log, so writes in flight during a copy may be missing from it.
// Restore overwrites the live file without checking that the source is an
// erpdesk database.
package store
