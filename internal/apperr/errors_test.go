// ABOUTME: Tests for the error taxonomy
// ABOUTME: Covers classification through wrapping, wire projection and HTTP status mapping

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := NotFound("backup file not found")
	wrapped := fmt.Errorf("restoring: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindStorageUnavailable))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.False(t, Is(nil, KindInternal))
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("ctx: %w", Authentication("Senha atual incorreta"))
	assert.True(t, errors.Is(err, Authentication("")))
	assert.False(t, errors.Is(err, NotFound("")))
}

func TestError_MessageIncludesCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := StorageUnavailable("cannot create data directory", cause)

	assert.Equal(t, "cannot create data directory: permission denied", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestToResponse(t *testing.T) {
	cause := errors.New("disk I/O error at /var/lib/secret")
	resp := ToResponse(fmt.Errorf("x: %w", StorageUnavailable("database unavailable", cause)))
	assert.Equal(t, Response{Kind: KindStorageUnavailable, Message: "database unavailable"}, resp)

	resp = ToResponse(errors.New("raw driver error"))
	assert.Equal(t, KindInternal, resp.Kind)
	assert.NotContains(t, resp.Message, "driver")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuthentication, http.StatusUnauthorized},
		{KindNotFound, http.StatusNotFound},
		{KindSerialization, http.StatusUnprocessableEntity},
		{KindStorageUnavailable, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}
