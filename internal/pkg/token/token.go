// Package token issues opaque refresh tokens. The raw value is handed to the
// client once; sessions only ever store its digest.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const rawBytes = 32

// NewRefreshToken returns a random URL-safe token and the digest to persist.
func NewRefreshToken() (raw, digest string, err error) {
	b := make([]byte, rawBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(b)
	return raw, Digest(raw), nil
}

// Digest is the lookup key for a raw token.
func Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
