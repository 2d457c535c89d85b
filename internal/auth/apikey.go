package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// API key layout: KeyPrefix followed by keySecretLen hex characters.
const (
	KeyPrefix      = "lgk_"
	keySecretLen   = 32
	ClearPrefixLen = 12
)

// IssuedKey is a freshly generated API key. Raw is shown to the caller once
// and never stored.
type IssuedKey struct {
	Raw    string
	Prefix string
	Hash   string
}

// GenerateAPIKey creates a new random key together with its clear-text
// lookup prefix and bcrypt hash.
func GenerateAPIKey() (*IssuedKey, error) {
	buf := make([]byte, keySecretLen/2)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating api key: %w", err)
	}
	raw := KeyPrefix + hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing api key: %w", err)
	}

	return &IssuedKey{Raw: raw, Prefix: raw[:ClearPrefixLen], Hash: string(hash)}, nil
}

// KeyLookupPrefix returns the stored prefix of a raw key, or false when raw
// does not look like one of our keys.
func KeyLookupPrefix(raw string) (string, bool) {
	if !strings.HasPrefix(raw, KeyPrefix) || len(raw) != len(KeyPrefix)+keySecretLen {
		return "", false
	}
	return raw[:ClearPrefixLen], true
}

// CheckAPIKey reports whether raw matches a stored hash.
func CheckAPIKey(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
