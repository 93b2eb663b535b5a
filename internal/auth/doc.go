// Package auth is the session authority for erpdesk.
//
// # Sessions
//
// Login verifies an email and password against an active account and, on
// success, stores a session row holding a random UUIDv4 bearer token and
// an expiry 24 hours (configurable) after the database's current time.
// Session rows are keyed by ULIDs so they sort by creation.
//
//	Issued/Valid ──(time passes expires_at)──> Expired
//	     └─────────────(Logout)──────────────> Revoked (row deleted)
//
// An expired session is never renewed and its row is not removed until
// Logout or an explicit purge deletes it; readers filter on expiry.
//
// # Failure reporting
//
// A rejected login is a LoginResult with Success false, never an error.
// Unknown and deactivated accounts report "Usuário não encontrado"; a wrong
// password reports "Senha incorreta". Storage failures are apperr errors of
// kind storage_unavailable. ChangePassword with a wrong current password is
// kind authentication_error.
//
// # Caller identity
//
// There is no process-wide current user. The transport resolves the bearer
// token of each call into a Session and attaches it with WithSession;
// handlers read it back with FromContext.
//
// # Passwords
//
// Hasher wraps bcrypt with a clamped cost. The same Hasher is handed to the
// store so the seeded administrator is hashed at the configured cost.
package auth
