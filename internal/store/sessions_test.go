// ABOUTME: Tests for session persistence and expiry
// ABOUTME: Expiry is forced by rewriting expires_at with the database clock

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSession(t *testing.T, m *Manager, id, token string) (*Account, *Session) {
	t.Helper()
	ctx := context.Background()

	admin, err := m.GetActiveAccountByEmail(ctx, DefaultBootstrapEmail)
	require.NoError(t, err)

	session := &Session{ID: id, AccountID: admin.ID, Token: token}
	require.NoError(t, m.CreateSession(ctx, session, 24*time.Hour))
	return admin, session
}

func expireSession(t *testing.T, m *Manager, token string) {
	t.Helper()
	db, err := m.Open(context.Background())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`UPDATE sessions SET expires_at = datetime('now', '-1 second') WHERE token = ?`, token)
	require.NoError(t, err)
}

func TestCreateSession(t *testing.T) {
	m := newTestManager(t)
	_, session := createTestSession(t, m, "s1", "tok-1")

	assert.Equal(t, 24*time.Hour, session.ExpiresAt.Sub(session.CreatedAt))
	assert.WithinDuration(t, time.Now().UTC(), session.CreatedAt, time.Minute)
}

func TestCreateSession_SubSecondTTLRoundsUp(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	admin, err := m.GetActiveAccountByEmail(ctx, DefaultBootstrapEmail)
	require.NoError(t, err)

	session := &Session{ID: "s1", AccountID: admin.ID, Token: "tok-short"}
	require.NoError(t, m.CreateSession(ctx, session, 900*time.Millisecond))

	assert.Equal(t, time.Second, session.ExpiresAt.Sub(session.CreatedAt))
}

func TestCreateSession_RequiresIDAndToken(t *testing.T) {
	m := newTestManager(t)
	err := m.CreateSession(context.Background(), &Session{AccountID: 1}, time.Hour)
	assert.Error(t, err)
}

func TestCreateSession_DuplicateToken(t *testing.T) {
	m := newTestManager(t)
	admin, _ := createTestSession(t, m, "s1", "tok-1")

	err := m.CreateSession(context.Background(), &Session{ID: "s2", AccountID: admin.ID, Token: "tok-1"}, time.Hour)
	assert.Error(t, err)
}

func TestGetAccountBySessionToken(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	admin, _ := createTestSession(t, m, "s1", "tok-1")

	got, err := m.GetAccountBySessionToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)

	_, err = m.GetAccountBySessionToken(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	admin, _ := createTestSession(t, m, "s1", "tok-1")

	expireSession(t, m, "tok-1")

	n, err := m.CountValidSessions(ctx, "tok-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = m.GetAccountBySessionToken(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// The row is still there until something deletes it
	total, err := m.CountSessionsForAccount(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSession_DeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	admin, _ := createTestSession(t, m, "s1", "tok-1")

	require.NoError(t, m.SetAccountActive(ctx, admin.ID, false))

	_, err := m.GetAccountBySessionToken(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// The count-based check does not look at the account
	n, err := m.CountValidSessions(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteSessionByToken(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	createTestSession(t, m, "s1", "tok-1")

	removed, err := m.DeleteSessionByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = m.DeleteSessionByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)
}

func TestDeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	admin, _ := createTestSession(t, m, "s1", "tok-1")
	createTestSession(t, m, "s2", "tok-2")

	expireSession(t, m, "tok-1")

	removed, err := m.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	total, err := m.CountSessionsForAccount(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	n, err := m.CountValidSessions(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
