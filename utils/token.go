package utils

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// NewPublicToken returns an unguessable URL-safe token for a table's QR
// code. 12 random bytes -> 16 characters.
func NewPublicToken() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// UUID rather than panic in the unlikely case.
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// NewSecretLink returns the hidden admin-panel path segment for a tenant.
func NewSecretLink() string {
	return uuid.NewString()
}
