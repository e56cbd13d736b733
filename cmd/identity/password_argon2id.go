// Package identity password hashing (Argon2id).
//
// PasswordHasher is the identity-facing surface over cmd/security/password,
// which stays the single source of truth for:
//   - Argon2id parameters (defaults + env overrides)
//   - password policy (defaults + env overrides)
//   - strict PHC decoding + anti-DoS bounds during Verify
//
// Policy violations are reported as ErrInvalidInput so the HTTP layer can map
// them to 400 without inspecting password internals.
package identity

import (
	"errors"
	"sync"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/security/password"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher struct {
	cfg password.Config

	dummyOnce sync.Once
	dummyHash string
}

// NewPasswordHasher wraps an explicit password configuration.
func NewPasswordHasher(cfg password.Config) *PasswordHasher {
	return &PasswordHasher{cfg: cfg}
}

// PasswordHasherFromEnv loads password configuration from the environment.
func PasswordHasherFromEnv() (*PasswordHasher, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	return NewPasswordHasher(cfg), nil
}

// Validate checks plain against the password policy for the given account
// email without hashing.
func (h *PasswordHasher) Validate(plain, email string) error {
	return policyError("identity.ValidatePassword", h.cfg.ValidateFor(plain, email))
}

// Hash validates plain against the policy for the given account email and
// returns a PHC-style Argon2id hash.
func (h *PasswordHasher) Hash(plain, email string) (string, error) {
	enc, err := h.cfg.HashFor(plain, email)
	if err != nil {
		return "", policyError("identity.HashPassword", err)
	}
	return enc, nil
}

func policyError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, password.ErrPasswordTooShort):
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "Senha muito curta"}
	case errors.Is(err, password.ErrPasswordTooLong):
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "Senha muito longa"}
	case errors.Is(err, password.ErrWeakPassword):
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "Senha muito fraca"}
	default:
		return err
	}
}

// Verify checks plain against an encoded hash.
// A malformed hash is an error, not a mismatch.
func (h *PasswordHasher) Verify(plain, encoded string) (bool, error) {
	ok, err := h.cfg.Verify(encoded, plain)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			return false, errors.New("invalid argon2id hash format")
		}
		return false, err
	}
	return ok, nil
}

// NeedsRehash reports whether encoded was produced with weaker Argon2id
// parameters than the current configuration.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	return h.cfg.NeedsRehash(encoded)
}

// VerifyDummy burns the same work as a real Verify against a throwaway hash.
// Login calls it when the user does not exist so both failure paths cost the same.
func (h *PasswordHasher) VerifyDummy(plain string) {
	h.dummyOnce.Do(func() {
		cfg := h.cfg
		cfg.Policy.MinLength = 1
		cfg.Policy.RejectVeryWeak = false
		if hash, err := cfg.Hash("dummy-password-for-timing-only"); err == nil {
			h.dummyHash = hash
		}
	})
	if h.dummyHash == "" {
		return
	}
	_, _ = h.cfg.Verify(h.dummyHash, plain)
}
