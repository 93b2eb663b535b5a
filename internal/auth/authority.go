// ABOUTME: Session authority: turns credentials into bearer tokens and tokens into accounts
// ABOUTME: Sessions live in the store and expire by the database clock; logout deletes them

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/erpdesk/internal/apperr"
	"github.com/2389/erpdesk/internal/store"
)

// DefaultSessionTTL is how long an issued token stays valid.
const DefaultSessionTTL = 24 * time.Hour

// Login failure messages shown to the user. They differ between an unknown
// account and a wrong password, which tells a caller whether an email is
// registered.
const (
	MsgAccountNotFound = "Usuário não encontrado"
	MsgWrongPassword   = "Senha incorreta"
	MsgCurrentPassword = "Senha atual incorreta"
)

// Store is the persistence the authority needs. *store.Manager implements it.
type Store interface {
	GetActiveAccountByEmail(ctx context.Context, email string) (*store.Account, error)
	GetAccount(ctx context.Context, id int64) (*store.Account, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	TouchLastAccess(ctx context.Context, id int64) error
	CreateSession(ctx context.Context, session *store.Session, ttl time.Duration) error
	DeleteSessionByToken(ctx context.Context, token string) (int64, error)
	GetAccountBySessionToken(ctx context.Context, token string) (*store.Account, error)
	CountValidSessions(ctx context.Context, token string) (int, error)
}

// Ensure the store manager implements Store.
var _ Store = (*store.Manager)(nil)

// LoginResult is the outcome of a login attempt. A rejected login is a
// result with Success false and a Message, not an error.
type LoginResult struct {
	Success bool                 `json:"success"`
	Token   string               `json:"token,omitempty"`
	Account *store.PublicAccount `json:"account,omitempty"`
	Message string               `json:"message,omitempty"`
}

// Authority validates credentials and sessions.
type Authority struct {
	store  Store
	hasher *Hasher
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures an Authority.
type Option func(*Authority)

// WithSessionTTL sets the lifetime of issued sessions. Values under one
// second are ignored.
func WithSessionTTL(ttl time.Duration) Option {
	return func(a *Authority) {
		if ttl >= time.Second {
			a.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authority) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAuthority creates an Authority backed by s. A nil hasher uses
// bcrypt's default cost.
func NewAuthority(s Store, hasher *Hasher, opts ...Option) *Authority {
	if hasher == nil {
		hasher = NewHasher(0)
	}
	a := &Authority{
		store:  s,
		hasher: hasher,
		ttl:    DefaultSessionTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "auth")
	return a
}

// Login checks email and password against an active account. On success
// it persists a new session and returns its token with the account's
// public projection. Every successful login adds a session; existing
// sessions of the account are left alone.
func (a *Authority) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := a.store.GetActiveAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = a.hasher.Compare(dummyHash, password)
		a.logger.Info("login rejected", "reason", "unknown account")
		return &LoginResult{Message: MsgAccountNotFound}, nil
	}
	if err != nil {
		return nil, storageError(err)
	}

	if err := a.hasher.Compare(account.PasswordHash, password); err != nil {
		a.logger.Info("login rejected", "reason", "wrong password", "account_id", account.ID)
		return &LoginResult{Message: MsgWrongPassword}, nil
	}

	session := &store.Session{
		ID:        NewSessionID(),
		AccountID: account.ID,
		Token:     NewToken(),
	}
	if err := a.store.CreateSession(ctx, session, a.ttl); err != nil {
		return nil, storageError(err)
	}

	if err := a.store.TouchLastAccess(ctx, account.ID); err != nil {
		a.logger.Warn("recording last access failed", "account_id", account.ID, "error", err)
	}

	a.logger.Info("login succeeded", "account_id", account.ID, "expires_at", session.ExpiresAt)
	return &LoginResult{
		Success: true,
		Token:   session.Token,
		Account: account.Public(),
	}, nil
}

// Logout deletes the session holding token. An unknown token is not an error.
func (a *Authority) Logout(ctx context.Context, token string) error {
	removed, err := a.store.DeleteSessionByToken(ctx, token)
	if err != nil {
		return storageError(err)
	}
	a.logger.Debug("logout", "removed", removed)
	return nil
}

// CurrentAccount returns the account behind token, or nil when the token
// is unknown, expired or belongs to a deactivated account.
func (a *Authority) CurrentAccount(ctx context.Context, token string) (*store.PublicAccount, error) {
	if token == "" {
		return nil, nil
	}

	account, err := a.store.GetAccountBySessionToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError(err)
	}

	return account.Public(), nil
}

// ChangePassword replaces an account's password after verifying the
// current one. Sessions already issued to the account stay valid.
func (a *Authority) ChangePassword(ctx context.Context, accountID int64, current, next string) error {
	if next == "" {
		return apperr.Validation("new password is required")
	}

	account, err := a.store.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("account not found")
	}
	if err != nil {
		return storageError(err)
	}

	if err := a.hasher.Compare(account.PasswordHash, current); err != nil {
		a.logger.Info("password change rejected", "account_id", accountID)
		return apperr.Authentication(MsgCurrentPassword)
	}

	hash, err := a.hasher.Hash(next)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return apperr.Validation("new password is too long")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "hashing password", err)
	}

	if err := a.store.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("account not found")
		}
		return storageError(err)
	}

	a.logger.Info("password changed", "account_id", accountID)
	return nil
}

// ValidateSession reports whether token names an unexpired session. It
// does not look at the account, and any read failure counts as invalid.
func (a *Authority) ValidateSession(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	n, err := a.store.CountValidSessions(ctx, token)
	if err != nil {
		a.logger.Warn("session check failed", "error", err)
		return false
	}
	return n > 0
}

// Resolve builds the caller Session for token, resolving its account.
// An invalid token yields a Session with a nil Account.
func (a *Authority) Resolve(ctx context.Context, token string) (*Session, error) {
	account, err := a.CurrentAccount(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Account: account}, nil
}

// storageError classifies a store failure for the caller. Errors the
// store already classified pass through unchanged.
func storageError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.StorageUnavailable("database operation failed", err)
}
