// ABOUTME: Account types and store methods
// ABOUTME: PublicAccount is the outward projection of an account, without the password hash

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Account is a login principal as stored.
type Account struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Department   string
	Avatar       string
	Active       bool
	Permissions  Permissions
	// PermissionsInvalid is set when the stored permissions document failed
	// to parse and Permissions holds the empty mapping instead.
	PermissionsInvalid bool
	LastAccessAt       *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PublicAccount is the outward projection of an Account. It has no
// password hash field, so it cannot leak one.
type PublicAccount struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        string      `json:"role,omitempty"`
	Department  string      `json:"department,omitempty"`
	Avatar      string      `json:"avatar,omitempty"`
	Permissions Permissions `json:"permissions"`
}

// Public returns the sanitized projection of a.
func (a *Account) Public() *PublicAccount {
	perms := a.Permissions
	if perms == nil {
		perms = Permissions{}
	}
	return &PublicAccount{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Role:        a.Role,
		Department:  a.Department,
		Avatar:      a.Avatar,
		Permissions: perms,
	}
}

const accountSelect = `
	SELECT a.id, a.name, a.email, a.password_hash, a.role, a.department, a.avatar,
	       a.active, a.permissions, a.last_access_at, a.created_at, a.updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanAccount reads one account row. Permissions that fail to parse are
// replaced by the empty mapping and flagged on the account.
func (m *Manager) scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var role, department, avatar, permissions, lastAccess sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&role,
		&department,
		&avatar,
		&a.Active,
		&permissions,
		&lastAccess,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Role = role.String
	a.Department = department.String
	a.Avatar = avatar.String

	a.Permissions, err = ParsePermissions(permissions.String)
	if err != nil {
		a.PermissionsInvalid = true
		m.logger.Warn("account permissions unreadable, using empty set", "account_id", a.ID, "error", err)
	}

	if lastAccess.Valid && lastAccess.String != "" {
		t, err := parseTimestamp(lastAccess.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_access_at: %w", err)
		}
		a.LastAccessAt = &t
	}

	a.CreatedAt, err = parseTimestamp(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	a.UpdatedAt, err = parseTimestamp(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &a, nil
}

// GetActiveAccountByEmail retrieves an active account by exact email.
// Returns ErrNotFound if there is none.
func (m *Manager) GetActiveAccountByEmail(ctx context.Context, email string) (*Account, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	row := db.QueryRowContext(ctx, accountSelect+`FROM accounts a WHERE a.email = ? AND a.active = 1`, email)
	account, err := m.scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by email: %w", err)
	}

	return account, nil
}

// GetAccount retrieves an account by ID regardless of its active flag.
// Returns ErrNotFound if it doesn't exist.
func (m *Manager) GetAccount(ctx context.Context, id int64) (*Account, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return m.getAccount(ctx, db, id)
}

func (m *Manager) getAccount(ctx context.Context, db *sql.DB, id int64) (*Account, error) {
	row := db.QueryRowContext(ctx, accountSelect+`FROM accounts a WHERE a.id = ?`, id)
	account, err := m.scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}

	return account, nil
}

// CreateAccount inserts a new account. PasswordHash must already be set.
// On success the account's ID and timestamps are filled in from the stored
// row. Returns ErrEmailExists if the email is taken.
func (m *Manager) CreateAccount(ctx context.Context, account *Account) error {
	perms, err := account.Permissions.Encode()
	if err != nil {
		return err
	}

	db, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := db.ExecContext(ctx, `
		INSERT INTO accounts (name, email, password_hash, role, department, avatar, active, permissions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		account.Name,
		account.Email,
		account.PasswordHash,
		nullString(account.Role),
		nullString(account.Department),
		nullString(account.Avatar),
		account.Active,
		perms,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("inserting account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading account id: %w", err)
	}

	stored, err := m.getAccount(ctx, db, id)
	if err != nil {
		return err
	}
	*account = *stored

	m.logger.Info("created account", "id", id, "email", account.Email)
	return nil
}

// UpdatePasswordHash replaces an account's password hash and bumps its
// update timestamp. Returns ErrNotFound if the account doesn't exist.
func (m *Manager) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	return m.execOne(ctx, "updating password hash", `
		UPDATE accounts SET password_hash = ?, updated_at = datetime('now') WHERE id = ?
	`, passwordHash, id)
}

// TouchLastAccess records a successful login on the account.
func (m *Manager) TouchLastAccess(ctx context.Context, id int64) error {
	return m.execOne(ctx, "updating last access", `
		UPDATE accounts SET last_access_at = datetime('now') WHERE id = ?
	`, id)
}

// SetAccountActive activates or deactivates an account. Deactivated
// accounts cannot log in and their sessions stop resolving.
func (m *Manager) SetAccountActive(ctx context.Context, id int64, active bool) error {
	return m.execOne(ctx, "updating active flag", `
		UPDATE accounts SET active = ?, updated_at = datetime('now') WHERE id = ?
	`, active, id)
}

// CountAccountsByEmail returns how many accounts hold email.
func (m *Manager) CountAccountsByEmail(ctx context.Context, email string) (int, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE email = ?`, email).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return count, nil
}

// execOne runs a single-row update and maps zero affected rows to ErrNotFound.
func (m *Manager) execOne(ctx context.Context, op, query string, args ...any) error {
	db, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
