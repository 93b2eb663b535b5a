// ABOUTME: Key/value application settings stored as JSON documents
// ABOUTME: Values that are not valid JSON are returned as JSON strings

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2389/erpdesk/internal/apperr"
)

// GetSetting returns the JSON value stored under key. A stored value that
// is not valid JSON is returned as a JSON string holding the raw text.
// Returns ErrNotFound if the key was never saved.
func (m *Manager) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var value sql.NullString
	err = db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying setting: %w", err)
	}

	if !value.Valid {
		return json.RawMessage("null"), nil
	}
	if json.Valid([]byte(value.String)) {
		return json.RawMessage(value.String), nil
	}

	quoted, err := json.Marshal(value.String)
	if err != nil {
		return nil, fmt.Errorf("encoding setting: %w", err)
	}
	return quoted, nil
}

// SaveSetting stores value under key, replacing any previous value.
func (m *Manager) SaveSetting(ctx context.Context, key string, value json.RawMessage) error {
	if key == "" {
		return apperr.Validation("setting key is required")
	}
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	if !json.Valid(value) {
		return apperr.Validation("setting value must be valid JSON")
	}

	db, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}

	m.logger.Debug("saved setting", "key", key)
	return nil
}
