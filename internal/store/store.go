// ABOUTME: Store lifecycle manager for the erpdesk database file
// ABOUTME: Resolves the file path, opens per-operation connections and initializes schema and seed data

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/2389/erpdesk/internal/apperr"
)

// DefaultFileName is the database file created inside the data directory.
const DefaultFileName = "erpdesk.db"

// DefaultCacheSize is the page cache budget applied by Initialize.
const DefaultCacheSize = 10000

// DefaultBusyTimeout is how long a connection waits on a locked file.
const DefaultBusyTimeout = 5 * time.Second

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when creating an account with an email already in use
var ErrEmailExists = errors.New("email already exists")

// ErrTaxIDExists is returned when an organization's tax id collides with another row
var ErrTaxIDExists = errors.New("tax id already exists")

// DirResolver returns the installation's private data directory. The host
// process supplies it; the store never consults the environment itself.
type DirResolver func() (string, error)

// PasswordHasher hashes the bootstrap administrator password during seeding.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Options configures a Manager.
type Options struct {
	Dir         DirResolver
	FileName    string
	Driver      Driver
	BusyTimeout time.Duration
	CacheSize   int
	Bootstrap   Bootstrap
	Hasher      PasswordHasher
	Logger      *slog.Logger
}

// Manager owns the location of the database file. It holds no long-lived
// connection: every operation opens its own handle and closes it when done,
// leaving writer serialization to SQLite's file locking.
type Manager struct {
	dir         DirResolver
	fileName    string
	driver      Driver
	busyTimeout time.Duration
	cacheSize   int
	bootstrap   Bootstrap
	hasher      PasswordHasher
	logger      *slog.Logger
}

// New creates a Manager. Nothing touches the disk until an operation runs.
func New(opts Options) (*Manager, error) {
	if opts.Dir == nil {
		return nil, errors.New("store: data directory resolver is required")
	}
	if opts.Hasher == nil {
		return nil, errors.New("store: password hasher is required")
	}

	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if !driver.Valid() {
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	m := &Manager{
		dir:         opts.Dir,
		fileName:    opts.FileName,
		driver:      driver,
		busyTimeout: opts.BusyTimeout,
		cacheSize:   opts.CacheSize,
		bootstrap:   opts.Bootstrap.withDefaults(),
		hasher:      opts.Hasher,
		logger:      opts.Logger,
	}
	if m.fileName == "" {
		m.fileName = DefaultFileName
	}
	if m.busyTimeout <= 0 {
		m.busyTimeout = DefaultBusyTimeout
	}
	if m.cacheSize == 0 {
		m.cacheSize = DefaultCacheSize
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "store")

	return m, nil
}

// FixedDir returns a resolver that always yields dir.
func FixedDir(dir string) DirResolver {
	return func() (string, error) { return dir, nil }
}

// BootstrapEmail is the reserved email of the seeded administrator.
func (m *Manager) BootstrapEmail() string {
	return m.bootstrap.Email
}

// ResolvePath returns the database file path, creating the data directory
// if it does not exist yet.
func (m *Manager) ResolvePath() (string, error) {
	dir, err := m.dir()
	if err != nil {
		return "", apperr.StorageUnavailable("cannot resolve data directory", err)
	}
	if dir == "" {
		return "", apperr.StorageUnavailable("cannot resolve data directory", errors.New("empty path"))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperr.StorageUnavailable("cannot create data directory", err)
	}

	return filepath.Join(dir, m.fileName), nil
}

// Open returns a fresh single-connection handle to the database file with
// foreign keys and the busy timeout in effect. Callers must Close it.
func (m *Manager) Open(ctx context.Context) (*sql.DB, error) {
	db, _, err := m.open(ctx)
	return db, err
}

func (m *Manager) open(ctx context.Context) (*sql.DB, string, error) {
	path, err := m.ResolvePath()
	if err != nil {
		return nil, "", err
	}

	db, err := openDB(ctx, m.driver, path, m.busyTimeout)
	if err != nil {
		return nil, "", apperr.StorageUnavailable("database unavailable", err)
	}

	return db, path, nil
}

// Initialize guarantees a schema-complete, seeded store. It applies the
// engine pragmas, creates every table and index that is missing and seeds
// the bootstrap records if they were never seeded. Safe to call any number
// of times, from any number of processes.
func (m *Manager) Initialize(ctx context.Context) error {
	db, path, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := applyPragmas(ctx, db, m.cacheSize); err != nil {
		return apperr.StorageUnavailable("configuring database", err)
	}

	if err := createTables(ctx, db); err != nil {
		return apperr.StorageUnavailable("creating schema", err)
	}

	if err := createIndexes(ctx, db); err != nil {
		return apperr.StorageUnavailable("creating indexes", err)
	}

	if err := m.seed(ctx, db); err != nil {
		return apperr.StorageUnavailable("seeding initial data", err)
	}

	m.logger.Info("store initialized", "path", path)
	return nil
}

// SchemaTables lists the user tables present in the store, sorted by name.
func (m *Manager) SchemaTables(ctx context.Context) ([]string, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}

	return tables, nil
}

// SchemaReady reports whether every erpdesk table exists in the store.
func (m *Manager) SchemaReady(ctx context.Context) (bool, error) {
	present, err := m.SchemaTables(ctx)
	if err != nil {
		return false, err
	}

	have := make(map[string]bool, len(present))
	for _, name := range present {
		have[name] = true
	}
	for _, name := range TableNames() {
		if !have[name] {
			return false, nil
		}
	}
	return true, nil
}
