// ABOUTME: Tests for the session authority against a real SQLite store
// ABOUTME: Covers login, logout, expiry, account lookup, password change and session validation

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/erpdesk/internal/apperr"
	"github.com/2389/erpdesk/internal/store"
)

const (
	adminEmail    = "admin@bootstrap.test"
	adminPassword = "correct-password"
)

func setupAuthority(t *testing.T) (*Authority, *store.Manager) {
	t.Helper()

	hasher := NewHasher(bcrypt.MinCost)
	m, err := store.New(store.Options{
		Dir:       store.FixedDir(t.TempDir()),
		Hasher:    hasher,
		Bootstrap: store.Bootstrap{Email: adminEmail, Password: adminPassword},
	})
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background()))

	return NewAuthority(m, hasher), m
}

func login(t *testing.T, a *Authority) *LoginResult {
	t.Helper()
	res, err := a.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)
	require.True(t, res.Success, "login failed: %s", res.Message)
	return res
}

func expireToken(t *testing.T, m *store.Manager, token string) {
	t.Helper()
	db, err := m.Open(context.Background())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`UPDATE sessions SET expires_at = datetime('now', '-1 second') WHERE token = ?`, token)
	require.NoError(t, err)
}

func TestWithSessionTTL_IgnoresSubSecond(t *testing.T) {
	a := NewAuthority(nil, NewHasher(bcrypt.MinCost), WithSessionTTL(900*time.Millisecond))
	assert.Equal(t, DefaultSessionTTL, a.ttl)

	a = NewAuthority(nil, NewHasher(bcrypt.MinCost), WithSessionTTL(2*time.Second))
	assert.Equal(t, 2*time.Second, a.ttl)
}

func TestLogin_ShortTTLSessionIsValid(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)
	m, err := store.New(store.Options{
		Dir:       store.FixedDir(t.TempDir()),
		Hasher:    hasher,
		Bootstrap: store.Bootstrap{Email: adminEmail, Password: adminPassword},
	})
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background()))

	a := NewAuthority(m, hasher, WithSessionTTL(900*time.Millisecond))
	res := login(t, a)
	assert.True(t, a.ValidateSession(context.Background(), res.Token))
}

func TestLogin_RoundTrip(t *testing.T) {
	ctx := context.Background()
	a, m := setupAuthority(t)

	res := login(t, a)
	assert.NotEmpty(t, res.Token)
	assert.Empty(t, res.Message)
	require.NotNil(t, res.Account)
	assert.Equal(t, adminEmail, res.Account.Email)

	assert.True(t, a.ValidateSession(ctx, res.Token))

	current, err := a.CurrentAccount(ctx, res.Token)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, adminEmail, current.Email)

	data, err := json.Marshal(current)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), "$2a$")

	account, err := m.GetAccount(ctx, current.ID)
	require.NoError(t, err)
	assert.NotNil(t, account.LastAccessAt)
}

func TestLogin_EachLoginAddsASession(t *testing.T) {
	ctx := context.Background()
	a, m := setupAuthority(t)

	first := login(t, a)
	second := login(t, a)
	assert.NotEqual(t, first.Token, second.Token)

	n, err := m.CountSessionsForAccount(ctx, first.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.True(t, a.ValidateSession(ctx, first.Token))
	assert.True(t, a.ValidateSession(ctx, second.Token))
}

func TestLogin_UnknownAccount(t *testing.T) {
	a, _ := setupAuthority(t)

	res, err := a.Login(context.Background(), "nobody@example.com", adminPassword)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, MsgAccountNotFound, res.Message)
	assert.Empty(t, res.Token)
	assert.Nil(t, res.Account)
}

func TestLogin_WrongPasswordLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	a, m := setupAuthority(t)

	before, err := m.GetActiveAccountByEmail(ctx, adminEmail)
	require.NoError(t, err)

	res, err := a.Login(ctx, adminEmail, "wrong")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, MsgWrongPassword, res.Message)

	after, err := m.GetActiveAccountByEmail(ctx, adminEmail)
	require.NoError(t, err)
	assert.Nil(t, after.LastAccessAt)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)

	n, err := m.CountSessionsForAccount(ctx, before.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	a, m := setupAuthority(t)

	account, err := m.GetActiveAccountByEmail(ctx, adminEmail)
	require.NoError(t, err)
	require.NoError(t, m.SetAccountActive(ctx, account.ID, false))

	res, err := a.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, MsgAccountNotFound, res.Message)
}

func TestSessionExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	a, m := setupAuthority(t)

	res := login(t, a)
	expireToken(t, m, res.Token)

	assert.False(t, a.ValidateSession(ctx, res.Token))

	current, err := a.CurrentAccount(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, current)

	n, err := m.CountSessionsForAccount(ctx, res.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "expired row should still exist")
}

func TestLogout_DestructiveAndIdempotent(t *testing.T) {
	ctx := context.Background()
	a, _ := setupAuthority(t)

	res := login(t, a)

	require.NoError(t, a.Logout(ctx, res.Token))
	assert.False(t, a.ValidateSession(ctx, res.Token))

	current, err := a.CurrentAccount(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, current)

	assert.NoError(t, a.Logout(ctx, res.Token))
	assert.NoError(t, a.Logout(ctx, "never-issued"))
}

func TestCurrentAccount_DeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	a, m := setupAuthority(t)

	res := login(t, a)
	require.NoError(t, m.SetAccountActive(ctx, res.Account.ID, false))

	current, err := a.CurrentAccount(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestCurrentAccount_EmptyToken(t *testing.T) {
	a, _ := setupAuthority(t)

	current, err := a.CurrentAccount(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.False(t, a.ValidateSession(context.Background(), ""))
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	ctx := context.Background()
	a, m := setupAuthority(t)

	account, err := m.GetActiveAccountByEmail(ctx, adminEmail)
	require.NoError(t, err)

	err = a.ChangePassword(ctx, account.ID, "wrong-current", "new")
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
	assert.Equal(t, MsgCurrentPassword, apperr.ToResponse(err).Message)

	after, err := m.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.PasswordHash, after.PasswordHash)

	// The old password still works
	login(t, a)
}

func TestChangePassword_Success(t *testing.T) {
	ctx := context.Background()
	a, _ := setupAuthority(t)

	res := login(t, a)

	require.NoError(t, a.ChangePassword(ctx, res.Account.ID, adminPassword, "brand-new"))

	old, err := a.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	assert.False(t, old.Success)

	fresh, err := a.Login(ctx, adminEmail, "brand-new")
	require.NoError(t, err)
	assert.True(t, fresh.Success)

	// Sessions issued before the change stay valid
	assert.True(t, a.ValidateSession(ctx, res.Token))
}

func TestChangePassword_UnknownAccount(t *testing.T) {
	a, _ := setupAuthority(t)

	err := a.ChangePassword(context.Background(), 9999, "x", "y")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestChangePassword_EmptyNewPassword(t *testing.T) {
	a, _ := setupAuthority(t)

	err := a.ChangePassword(context.Background(), 1, adminPassword, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	a, _ := setupAuthority(t)

	res := login(t, a)

	s, err := a.Resolve(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, s.Authenticated())
	assert.True(t, s.Allows("admin"))

	s, err = a.Resolve(ctx, "bogus")
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
	assert.Equal(t, "bogus", s.Token)
}

// failingStore fails every read so the error paths can be observed.
type failingStore struct {
	Store
}

var errDisk = errors.New("disk I/O error")

func (failingStore) CountValidSessions(context.Context, string) (int, error) {
	return 0, errDisk
}

func (failingStore) GetActiveAccountByEmail(context.Context, string) (*store.Account, error) {
	return nil, errDisk
}

func (failingStore) GetAccountBySessionToken(context.Context, string) (*store.Account, error) {
	return nil, errDisk
}

func TestValidateSession_ReadErrorIsInvalid(t *testing.T) {
	a := NewAuthority(failingStore{}, NewHasher(bcrypt.MinCost))
	assert.False(t, a.ValidateSession(context.Background(), "tok"))
}

func TestLogin_StorageErrorIsReturned(t *testing.T) {
	a := NewAuthority(failingStore{}, NewHasher(bcrypt.MinCost))

	res, err := a.Login(context.Background(), adminEmail, adminPassword)
	assert.Nil(t, res)
	assert.True(t, apperr.Is(err, apperr.KindStorageUnavailable))
	assert.ErrorIs(t, err, errDisk)
}

func TestCurrentAccount_StorageErrorIsReturned(t *testing.T) {
	a := NewAuthority(failingStore{}, NewHasher(bcrypt.MinCost))

	_, err := a.CurrentAccount(context.Background(), "tok")
	assert.True(t, apperr.Is(err, apperr.KindStorageUnavailable))
}

func TestNewAuthority_Options(t *testing.T) {
	a := NewAuthority(failingStore{}, nil, WithSessionTTL(time.Hour), WithSessionTTL(-1))
	assert.Equal(t, time.Hour, a.ttl)
	assert.Equal(t, bcrypt.DefaultCost, a.hasher.Cost)
}
