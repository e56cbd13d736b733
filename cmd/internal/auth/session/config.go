package session

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/security/token"
)

// Token formats accepted by NewManager.
const (
	FormatJWT    = "jwt"
	FormatPaseto = "paseto"
)

// Config defines runtime configuration for token issuance.
type Config struct {
	// Format selects the token implementation (FormatJWT or FormatPaseto).
	Format string

	// Issuer is the value set in the "iss" claim.
	Issuer string

	// TTL is the token lifetime.
	TTL time.Duration

	// ClockSkew is the tolerance applied during verification.
	ClockSkew time.Duration

	// JWTSecret signs HS256 tokens. At least token.MinSecretBytes long.
	JWTSecret []byte

	// PasetoV4SecretKeyHex is the hex-encoded Ed25519 secret key
	// used to sign PASETO v4.public tokens.
	PasetoV4SecretKeyHex string
}

// DefaultConfig returns defaults without any key material.
func DefaultConfig() Config {
	return Config{
		Format:    FormatJWT,
		Issuer:    "poli",
		TTL:       7 * 24 * time.Hour,
		ClockSkew: 30 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional (durations must be valid Go duration strings):
//   - POLI_TOKEN_FORMAT (jwt|paseto)
//   - POLI_AUTH_ISSUER
//   - POLI_TOKEN_TTL
//   - POLI_AUTH_CLOCK_SKEW
//   - POLI_JWT_SECRET
//   - POLI_PASETO_V4_SECRET_KEY_HEX (required when format is paseto)
//
// A missing JWT secret is not an error here; the caller decides whether a
// generated development secret is acceptable.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("POLI_TOKEN_FORMAT"))); v != "" {
		if v != FormatJWT && v != FormatPaseto {
			return Config{}, ErrConfig
		}
		cfg.Format = v
	}

	if v := strings.TrimSpace(os.Getenv("POLI_AUTH_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("POLI_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := os.Getenv("POLI_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	switch b, err := token.SecretFromEnv("POLI_JWT_SECRET", token.MinSecretBytes); {
	case err == nil:
		cfg.JWTSecret = b
	case !errors.Is(err, token.ErrSecretMissing):
		return Config{}, ErrConfig
	}

	cfg.PasetoV4SecretKeyHex = strings.TrimSpace(os.Getenv("POLI_PASETO_V4_SECRET_KEY_HEX"))
	if cfg.Format == FormatPaseto && cfg.PasetoV4SecretKeyHex == "" {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
