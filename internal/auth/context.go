// ABOUTME: Per-call caller identity carried through context
// ABOUTME: Provides WithSession/FromContext instead of a process-wide "current user"

package auth

import (
	"context"

	"github.com/2389/erpdesk/internal/store"
)

// Session is the caller identity for one call: the bearer token it
// presented and, once resolved, the account behind it.
type Session struct {
	Token   string
	Account *store.PublicAccount // nil until resolved, or if the token is not valid
}

// Authenticated reports whether the token resolved to an account.
func (s *Session) Authenticated() bool {
	return s != nil && s.Account != nil
}

// Allows reports whether the resolved account holds permission key.
func (s *Session) Allows(key string) bool {
	return s.Authenticated() && s.Account.Permissions.Allows(key)
}

// sessionContextKey is the key type for storing Session in context.Context.
type sessionContextKey struct{}

// WithSession returns a new context with the Session attached.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext retrieves the Session from the context, returning nil if not present.
func FromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(sessionContextKey{}).(*Session)
	if !ok {
		return nil
	}
	return s
}

// TokenFromContext returns the bearer token carried in ctx, or "".
func TokenFromContext(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.Token
	}
	return ""
}
