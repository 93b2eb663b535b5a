// ABOUTME: Error taxonomy shared by the store, the session authority and the command layer
// ABOUTME: Classifies failures by Kind and projects them to the {kind, message} pair the UI renders

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable class of a failure.
type Kind string

const (
	KindStorageUnavailable Kind = "storage_unavailable"
	KindAuthentication     Kind = "authentication_error"
	KindNotFound           Kind = "not_found"
	KindValidation         Kind = "validation_error"
	KindSerialization      Kind = "serialization_error"
	KindInternal           Kind = "internal"
)

// Error is a classified failure. Message is safe to show to the user;
// Err carries the underlying cause for logs and is never serialized.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, apperr.NotFound("")) style checks against a kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// StorageUnavailable reports a file or directory that cannot be opened,
// created, copied or written.
func StorageUnavailable(message string, err error) *Error {
	return Wrap(KindStorageUnavailable, message, err)
}

// Authentication reports a credential mismatch.
func Authentication(message string) *Error {
	return New(KindAuthentication, message)
}

// NotFound reports a referenced entity or file that does not exist.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation reports input rejected before it reached storage.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Serialization reports a structured payload that failed to parse.
func Serialization(message string, err error) *Error {
	return Wrap(KindSerialization, message, err)
}

// KindOf returns the Kind of err, or KindInternal when err carries no
// classification. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Response is the wire projection of an error. No cause or stack detail
// leaves the process.
type Response struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// ToResponse projects err for the UI. Unclassified errors get a generic
// message so internal detail is not exposed.
func ToResponse(err error) Response {
	var e *Error
	if errors.As(err, &e) {
		return Response{Kind: e.Kind, Message: e.Message}
	}
	return Response{Kind: KindInternal, Message: "An internal error occurred"}
}

// HTTPStatus maps a kind to the status used by the HTTP transport.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindSerialization:
		return http.StatusUnprocessableEntity
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
