package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash means an encoded hash is malformed, unsupported, or carries
// parameters outside what Verify is willing to spend.
var ErrInvalidHash = errors.New("password: unusable argon2id hash")

// phcPrefix is the fixed head of every encoded hash this package produces.
var phcPrefix = fmt.Sprintf("$argon2id$v=%d$", argon2.Version)

// Hash hashes a password using Argon2id and returns an encoded hash string.
// Format:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
func (c Config) Hash(password string) (string, error) {
	return c.HashFor(password, "")
}

// HashFor is Hash with the account-aware policy check of ValidateFor.
func (c Config) HashFor(password, email string) (string, error) {
	if err := c.ValidateFor(password, email); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, c.Params.Iterations, c.Params.MemoryKiB, c.Params.Parallelism, c.Params.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("%sm=%d,t=%d,p=%d$%s$%s",
		phcPrefix,
		c.Params.MemoryKiB,
		c.Params.Iterations,
		c.Params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify checks whether password matches the given encoded hash.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported hashes.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	params, salt, expected, err := decode(encodedHash)
	if err != nil {
		return false, err
	}

	// Refuse attacker-sized parameters before doing any work.
	if !withinReasonableBounds(params, c.Params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)), // #nosec G115 -- bounded by withinReasonableBounds.
	)

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced with weaker parameters
// than the current configuration.
func (c Config) NeedsRehash(encodedHash string) bool {
	params, _, _, err := decode(encodedHash)
	if err != nil {
		return true
	}
	return params.MemoryKiB < c.Params.MemoryKiB ||
		params.Iterations < c.Params.Iterations ||
		params.KeyLength < c.Params.KeyLength
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	// Older/smaller settings still verify; wildly larger ones do not.
	switch {
	case got.MemoryKiB > limits.MemoryKiB*2:
		return false
	case got.Iterations > limits.Iterations*2:
		return false
	case got.Parallelism > limits.Parallelism*2:
		return false
	case got.SaltLength < 8 || got.SaltLength > 64:
		return false
	case got.KeyLength < 16 || got.KeyLength > 128:
		return false
	}
	return true
}

// decode parses $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>.
func decode(encoded string) (Argon2idParams, []byte, []byte, error) {
	if !strings.HasPrefix(encoded, phcPrefix) {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	parts := strings.Split(strings.TrimPrefix(encoded, phcPrefix), "$")
	if len(parts) != 3 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[0], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[1])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := b64.DecodeString(parts[2])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	return Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par), // #nosec G115 -- checked <= 255 above.
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(hash)),
	}, salt, hash, nil
}
