package session

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

type pasetoV4PublicManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration

	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

// NewPasetoV4Manager builds a Manager based on PASETO v4.public.
//
// It uses an Ed25519 asymmetric keypair and enforces issuer and expiration rules.
// Clock skew is applied during verification via ValidAt.
func NewPasetoV4Manager(cfg Config) (Manager, error) {
	if cfg.TTL <= 0 {
		return nil, ErrConfig
	}
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.PasetoV4SecretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}

	return &pasetoV4PublicManager{
		issuer:    cfg.Issuer,
		ttl:       cfg.TTL,
		clockSkew: cfg.ClockSkew,
		secret:    secret,
		public:    secret.Public(),
	}, nil
}

func (m *pasetoV4PublicManager) Issue(sub Subject, now time.Time) (string, time.Time, error) {
	now = now.UTC().Truncate(time.Second)
	exp := now.Add(m.ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(m.issuer)
	tok.SetSubject(sub.Email)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)

	_ = tok.Set("email", sub.Email)
	_ = tok.Set("name", sub.Name)

	return tok.V4Sign(m.secret, nil), exp, nil
}

func (m *pasetoV4PublicManager) Verify(token string, now time.Time) (Claims, error) {
	// Validating slightly in the future tolerates "nbf" drift between hosts.
	validNow := now.Add(m.clockSkew)

	// Fresh parser per call so rules never accumulate.
	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(m.issuer))
	p.AddRule(paseto.NotExpired())
	p.AddRule(paseto.ValidAt(validNow))

	parsed, err := p.ParseV4Public(m.public, token, nil)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	email, err := parsed.GetString("email")
	if err != nil || email == "" {
		return Claims{}, ErrInvalidToken
	}
	if sub, err := parsed.GetSubject(); err != nil || sub != email {
		return Claims{}, ErrInvalidToken
	}
	name, _ := parsed.GetString("name")
	iss, _ := parsed.GetIssuer()
	iat, _ := parsed.GetIssuedAt()
	exp, _ := parsed.GetExpiration()

	return Claims{
		Email:     email,
		Name:      name,
		Issuer:    iss,
		IssuedAt:  iat.UTC(),
		ExpiresAt: exp.UTC(),
	}, nil
}
