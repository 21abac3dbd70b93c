// token.go implements console access token generation and verification.
// Raw tokens are never stored: only a bcrypt hash plus a short plaintext
// prefix used to narrow the candidate set on lookup.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenPrefixLength is how many leading characters of the raw token are
	// stored in plaintext for indexed lookup.
	TokenPrefixLength = 10

	// tokenBytes is the number of random bytes in a generated token.
	tokenBytes = 32

	// bcryptCost used for hashing access tokens.
	bcryptCost = 12
)

// GenerateAccessToken creates a new raw access token, its lookup prefix, and
// the bcrypt hash to persist. The raw token is returned exactly once; callers
// must show it to the user and discard it.
func GenerateAccessToken() (raw, prefix, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("failed to generate token: %w", err)
	}

	raw = "csl_" + base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(buf)
	prefix = raw[:TokenPrefixLength]

	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to hash token: %w", err)
	}

	return raw, prefix, string(hashed), nil
}

// ValidateAccessToken reports whether a raw token matches a stored bcrypt hash.
func ValidateAccessToken(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// TokenPrefix returns the lookup prefix for a raw token.
func TokenPrefix(raw string) string {
	if len(raw) > TokenPrefixLength {
		return raw[:TokenPrefixLength]
	}
	return raw
}
