// ABOUTME: Session rows backing bearer tokens
// ABOUTME: Expiry is computed and compared with the database clock, never the host clock

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Session is one issued bearer token.
type Session struct {
	ID        string
	AccountID int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CreateSession persists a session that expires ttl after the database's
// current time. ID, AccountID and Token must be set; ExpiresAt and
// CreatedAt are filled in from the stored row.
func (m *Manager) CreateSession(ctx context.Context, session *Session, ttl time.Duration) error {
	if session.ID == "" || session.Token == "" {
		return errors.New("session id and token are required")
	}

	db, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// Whole seconds, rounded up, so a sub-second TTL is never born expired.
	seconds := int64((ttl + time.Second - 1) / time.Second)
	modifier := fmt.Sprintf("%+d seconds", seconds)

	var expiresAt, createdAt string
	err = db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, account_id, token, expires_at, created_at)
		VALUES (?, ?, ?, datetime('now', ?), datetime('now'))
		RETURNING expires_at, created_at
	`, session.ID, session.AccountID, session.Token, modifier).Scan(&expiresAt, &createdAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	if session.ExpiresAt, err = parseTimestamp(expiresAt); err != nil {
		return fmt.Errorf("parsing expires_at: %w", err)
	}
	if session.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}

	return nil
}

// DeleteSessionByToken removes the session holding token and reports how
// many rows were removed. Deleting an unknown token is not an error.
func (m *Manager) DeleteSessionByToken(ctx context.Context, token string) (int64, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return 0, fmt.Errorf("deleting session: %w", err)
	}

	return result.RowsAffected()
}

// GetAccountBySessionToken resolves a token to its account. The session
// must not be expired and the account must be active. Returns ErrNotFound
// otherwise, without saying which condition failed.
func (m *Manager) GetAccountBySessionToken(ctx context.Context, token string) (*Account, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	row := db.QueryRowContext(ctx, accountSelect+`
		FROM sessions s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.token = ? AND s.expires_at > datetime('now') AND a.active = 1
	`, token)

	account, err := m.scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by session: %w", err)
	}

	return account, nil
}

// CountValidSessions counts unexpired sessions holding token. It does not
// look at the owning account.
func (m *Manager) CountValidSessions(ctx context.Context, token string) (int, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions WHERE token = ? AND expires_at > datetime('now')
	`, token).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}

	return count, nil
}

// CountSessionsForAccount counts every session row owned by an account,
// expired or not.
func (m *Manager) CountSessionsForAccount(ctx context.Context, accountID int64) (int, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE account_id = ?`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting account sessions: %w", err)
	}

	return count, nil
}

// DeleteExpiredSessions removes every session whose expiry has passed and
// reports how many were removed. Nothing calls this in the background.
func (m *Manager) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	if removed > 0 {
		m.logger.Info("purged expired sessions", "count", removed)
	}
	return removed, nil
}
