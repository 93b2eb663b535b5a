// ABOUTME: Account permissions document stored as JSON text
// ABOUTME: Parse failures are reported as serialization errors instead of being silently dropped

package store

import (
	"encoding/json"
	"strings"

	"github.com/2389/erpdesk/internal/apperr"
)

// Permissions is an account's open-ended permission mapping, for example
// {"admin": true, "sales": true}. Authorization code outside the store
// decides what the keys mean.
type Permissions map[string]any

// ParsePermissions decodes a stored permissions document. An empty or null
// document is the empty mapping. Anything that is not a JSON object is a
// serialization error.
func ParsePermissions(raw string) (Permissions, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return Permissions{}, nil
	}

	var p Permissions
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Permissions{}, apperr.Serialization("invalid permissions document", err)
	}
	if p == nil {
		p = Permissions{}
	}
	return p, nil
}

// Encode serializes p for storage. A nil mapping encodes as "{}".
func (p Permissions) Encode() (string, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", apperr.Serialization("encoding permissions document", err)
	}
	return string(data), nil
}

// Allows reports whether key is granted, either directly or through the
// "all" wildcard. Only boolean true grants.
func (p Permissions) Allows(key string) bool {
	if granted, ok := p["all"].(bool); ok && granted {
		return true
	}
	granted, ok := p[key].(bool)
	return ok && granted
}
