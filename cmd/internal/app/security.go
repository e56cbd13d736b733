package app

import (
	"errors"
	"fmt"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/session"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/security/token"
)

// ErrJWTSecretRequired is returned when production starts without a signing secret.
var ErrJWTSecretRequired = errors.New("security policy: POLI_JWT_SECRET is required in production (min 32 bytes)")

// ensureTokenSecret enforces the signing-key policy at startup.
//
// Production refuses to start without POLI_JWT_SECRET. Elsewhere a random
// per-process secret is generated, so tokens do not survive a restart.
func ensureTokenSecret(cfg Config, sess *session.Config, log Logger) error {
	if sess.Format != session.FormatJWT || len(sess.JWTSecret) > 0 {
		return nil
	}
	if cfg.Production() {
		return ErrJWTSecretRequired
	}

	secret, err := token.NewRandomSecret(token.MinSecretBytes)
	if err != nil {
		return fmt.Errorf("security: generate dev secret: %w", err)
	}
	sess.JWTSecret = []byte(secret)
	log.Warn("security.jwt_secret.generated",
		"reason", "POLI_JWT_SECRET not set",
		"effect", "tokens are invalidated on restart",
	)
	return nil
}
