package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/security/token"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type jwtManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	secret    []byte
}

// NewJWTManager builds a Manager that signs HS256 JWTs.
func NewJWTManager(cfg Config) (Manager, error) {
	if len(cfg.JWTSecret) < token.MinSecretBytes || cfg.TTL <= 0 {
		return nil, ErrConfig
	}
	secret := make([]byte, len(cfg.JWTSecret))
	copy(secret, cfg.JWTSecret)

	return &jwtManager{
		issuer:    cfg.Issuer,
		ttl:       cfg.TTL,
		clockSkew: cfg.ClockSkew,
		secret:    secret,
	}, nil
}

func (m *jwtManager) Issue(sub Subject, now time.Time) (string, time.Time, error) {
	// NumericDate has second precision; report what the token actually carries.
	now = now.UTC().Truncate(time.Second)
	exp := now.Add(m.ttl)

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   sub.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: sub.Email,
		Name:  sub.Name,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *jwtManager) Verify(tokenString string, now time.Time) (Claims, error) {
	var c jwtClaims
	_, err := jwt.ParseWithClaims(tokenString, &c,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if c.Email == "" || c.Subject != c.Email {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		Email:  c.Email,
		Name:   c.Name,
		Issuer: c.Issuer,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return out, nil
}
