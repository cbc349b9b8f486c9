package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewAuthToken generates the opaque 32-character hex token that identifies one
// in-flight login handshake.
func NewAuthToken() (string, error) {
	return random(16)
}

// NewSessionID generates the opaque 64-character hex id for a user session.
// Sessions and auth tokens live in distinct key namespaces and lengths.
func NewSessionID() (string, error) {
	return random(32)
}

func random(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
