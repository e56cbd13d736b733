package session

import "time"

// Subject identifies who a token is issued to.
type Subject struct {
	Email string
	Name  string
}

// Claims is the verified content of a token.
type Claims struct {
	Email     string
	Name      string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager issues and verifies user tokens.
type Manager interface {
	Issue(sub Subject, now time.Time) (token string, exp time.Time, err error)
	Verify(token string, now time.Time) (Claims, error)
}

// NewManager builds the Manager selected by cfg.Format.
func NewManager(cfg Config) (Manager, error) {
	switch cfg.Format {
	case "", FormatJWT:
		return NewJWTManager(cfg)
	case FormatPaseto:
		return NewPasetoV4Manager(cfg)
	default:
		return nil, ErrConfig
	}
}
