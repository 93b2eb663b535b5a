// Package commands exposes erpdesk's operations to the desktop UI shell as
// named calls.
//
// A Dispatcher maps command names to handlers. The HTTP transport accepts
//
//	POST /invoke/{command}
//	Authorization: Bearer <token>   (optional)
//	{ ...arguments... }
//
// and replies with {"data": result} or {"error": {"kind", "message"}}. The
// status code follows the error kind (see apperr.HTTPStatus).
//
// Commands that take a token argument fall back to the bearer token when
// the argument is empty. Commands registered with RequiresSession reject
// callers whose token does not resolve to an active account.
package commands
