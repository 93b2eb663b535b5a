// ABOUTME: SQLite driver selection, connection setup and engine pragmas
// ABOUTME: Supports the pure Go modernc.org/sqlite driver and the cgo mattn/go-sqlite3 driver

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names a registered database/sql SQLite driver.
type Driver string

const (
	// DriverSQLite is modernc.org/sqlite, a pure Go build of SQLite.
	DriverSQLite Driver = "sqlite"
	// DriverSQLite3 is github.com/mattn/go-sqlite3 and requires cgo.
	DriverSQLite3 Driver = "sqlite3"
)

// Valid reports whether d is a supported driver.
func (d Driver) Valid() bool {
	return d == DriverSQLite || d == DriverSQLite3
}

// dsn builds a connection string that enables foreign keys and the busy
// timeout on every connection the pool opens. The two drivers spell
// connection pragmas differently.
func (d Driver) dsn(path string, busyTimeout time.Duration) string {
	ms := busyTimeout.Milliseconds()
	if d == DriverSQLite3 {
		return fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d", path, ms)
	}
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, ms)
}

// timeLayout is the text form SQLite's datetime() produces. All timestamps
// are written by the database clock in this form, in UTC.
const timeLayout = "2006-01-02 15:04:05"

func openDB(ctx context.Context, driver Driver, path string, busyTimeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open(string(driver), driver.dsn(path, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection per handle; handles are short-lived and per operation.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}

// applyPragmas sets the durability and performance configuration used by
// every store: write-ahead logging, relaxed sync, a fixed page cache and
// in-memory temp storage. journal_mode=WAL persists in the file itself.
func applyPragmas(ctx context.Context, db *sql.DB, cacheSize int) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA cache_size=%d", cacheSize),
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("applying %q: %w", p, err)
		}
	}

	return nil
}

// nullString returns nil for empty strings so optional columns stay NULL
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseTimestamp reads a stored timestamp. Rows written by the database
// clock use timeLayout; RFC3339 is accepted for rows written by hand.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func isUniqueConstraintError(err error) bool {
	// SQLite returns "UNIQUE constraint failed" in the error message
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
