package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"os"
	"strings"
)

// MinSecretBytes is the minimum accepted size of an HMAC signing secret.
const MinSecretBytes = 32

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// SecretFromEnv returns the trimmed bytes of env var key, enforcing a minimum byte length.
// Missing/blank -> ErrSecretMissing; too short -> ErrSecretTooShort.
func SecretFromEnv(key string, minBytes int) ([]byte, error) {
	return CheckSecret(os.Getenv(key), minBytes)
}

// CheckSecret applies the SecretFromEnv rules to an already loaded value.
func CheckSecret(raw string, minBytes int) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrSecretMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrSecretTooShort
	}
	return b, nil
}

// NewRandomSecret returns nBytes of crypto/rand entropy, base64url encoded without padding.
func NewRandomSecret(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = MinSecretBytes
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// EqualSecret reports whether presented equals expected, in constant time with
// respect to both contents and length. An empty expected secret never matches.
func EqualSecret(presented, expected string) bool {
	if expected == "" {
		return false
	}
	// Fixed-size digests hide the length of either input.
	key := []byte(expected)
	a := HashHMACSHA256Hex(presented, key)
	b := HashHMACSHA256Hex(expected, key)
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
