package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/identity"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/identity/ids"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/session"
)

// PasswordHasher is the credential surface the gateway needs.
// *identity.PasswordHasher satisfies it.
type PasswordHasher interface {
	Validate(plain, email string) error
	Hash(plain, email string) (string, error)
	Verify(plain, encoded string) (bool, error)
	VerifyDummy(plain string)
	NeedsRehash(encoded string) bool
}

// Gateway orchestrates purchase registration and the account lifecycle.
type Gateway struct {
	store  identity.Store
	hasher PasswordHasher
	tokens session.Manager
	cfg    Config

	log *slog.Logger
	now func() time.Time
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

// WithClock overrides time.Now; tests use it to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// New constructs a Gateway.
func New(store identity.Store, hasher PasswordHasher, tokens session.Manager, cfg Config, opts ...Option) (*Gateway, error) {
	if store == nil || hasher == nil || tokens == nil {
		return nil, errors.New("gateway: missing dependency")
	}
	if strings.TrimSpace(cfg.DefaultName) == "" {
		cfg.DefaultName = DefaultCustomerName
	}

	g := &Gateway{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		cfg:    cfg,
		log:    slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// Config returns the active policy.
func (g *Gateway) Config() Config { return g.cfg }

// RegisterPurchaseInput describes a purchase to record.
// Empty fields are defaulted; see RegisterPurchase.
type RegisterPurchaseInput struct {
	Email      string
	Name       string
	PurchaseID string
	ProductID  string
	Status     identity.PurchaseStatus
	Source     identity.PurchaseSource
	Event      string
}

// PublicUser is the profile returned to clients.
type PublicUser struct {
	Email                  string `json:"email"`
	Name                   string `json:"name"`
	HasCompletedOnboarding bool   `json:"hasCompletedOnboarding"`
}

// AuthResult is returned by CreatePassword and Login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      PublicUser
}

// CheckPurchaseResult answers whether an email may create an account.
type CheckPurchaseResult struct {
	HasPurchase  bool
	CustomerName string
	PurchaseDate time.Time
	Message      string
}

// CreatePasswordInput carries the first-time credential request.
type CreatePasswordInput struct {
	Email    string
	Password string
	Name     string
}

// Snapshot lists the keys of both stores.
type Snapshot struct {
	Purchases []string
	Users     []string
}

// RegisterPurchase upserts the purchase for in.Email. A later call for the
// same email overwrites the record.
//
// Defaults: name DefaultName, status active, source webhook, purchase id
// "TEST_<ULID>", product id Config.DefaultProductID for simulations.
func (g *Gateway) RegisterPurchase(ctx context.Context, in RegisterPurchaseInput) (identity.Purchase, error) {
	const op = "gateway.RegisterPurchase"

	email := identity.NormalizeEmail(in.Email)
	if email == "" {
		return identity.Purchase{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: msgEmailRequired}
	}

	now := g.now()
	p := identity.Purchase{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PurchaseID:   strings.TrimSpace(in.PurchaseID),
		ProductID:    strings.TrimSpace(in.ProductID),
		Status:       in.Status,
		PurchaseDate: now,
		Source:       in.Source,
		Event:        strings.TrimSpace(in.Event),
	}
	if p.Name == "" {
		p.Name = g.cfg.DefaultName
	}
	if p.Status == "" {
		p.Status = identity.PurchaseActive
	}
	if !p.Status.Valid() {
		return identity.Purchase{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: msgUnknownPurchaseStatus}
	}
	if p.Source == "" {
		p.Source = identity.SourceWebhook
	}
	if p.ProductID == "" && p.Source == identity.SourceSimulation {
		p.ProductID = g.cfg.DefaultProductID
	}
	if p.PurchaseID == "" {
		id, err := ids.NewSyntheticPurchaseID(now)
		if err != nil {
			return identity.Purchase{}, fmt.Errorf("%s: purchase id: %w", op, err)
		}
		p.PurchaseID = id
	}

	if err := g.store.UpsertPurchase(ctx, p); err != nil {
		return identity.Purchase{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CheckPurchase reports whether email holds a purchase that allows account
// creation. Domain outcomes never produce an error; a non-nil error means
// the store failed.
func (g *Gateway) CheckPurchase(ctx context.Context, email string) (CheckPurchaseResult, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return CheckPurchaseResult{Message: msgEmailRequired}, nil
	}

	p, err := g.store.FindPurchase(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			return CheckPurchaseResult{Message: msgPurchaseNotFound}, nil
		}
		return CheckPurchaseResult{}, fmt.Errorf("gateway.CheckPurchase: %w", err)
	}
	if g.cfg.RequireActivePurchase && !p.Active() {
		return CheckPurchaseResult{Message: msgPurchaseInactive}, nil
	}

	return CheckPurchaseResult{
		HasPurchase:  true,
		CustomerName: p.Name,
		PurchaseDate: p.PurchaseDate,
		Message:      msgPurchaseFound,
	}, nil
}

// CreatePassword creates the user for a purchased email and issues a token.
//
// Checked in order: InvalidInput (missing fields or policy), NotFound (no
// purchase), Forbidden (inactive purchase under RequireActivePurchase),
// Conflict (user exists). Not idempotent.
func (g *Gateway) CreatePassword(ctx context.Context, in CreatePasswordInput) (AuthResult, error) {
	const op = "gateway.CreatePassword"

	email := identity.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return AuthResult{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: msgCredentialsRequired}
	}
	if err := g.hasher.Validate(in.Password, email); err != nil {
		return AuthResult{}, err
	}

	p, err := g.store.FindPurchase(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			return AuthResult{}, identity.OpError{Op: op, Kind: identity.ErrNotFound, Msg: msgPurchaseNotFound}
		}
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if g.cfg.RequireActivePurchase && !p.Active() {
		return AuthResult{}, identity.OpError{Op: op, Kind: identity.ErrForbidden, Msg: msgPurchaseInactive}
	}

	// Fail fast before hashing; InsertUser re-checks atomically.
	if _, err := g.store.FindUser(ctx, email); err == nil {
		return AuthResult{}, identity.OpError{Op: op, Kind: identity.ErrConflict, Msg: msgUserAlreadyExists}
	} else if !identity.IsNotFound(err) {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := g.hasher.Hash(in.Password, email)
	if err != nil {
		return AuthResult{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = p.Name
	}
	if name == "" {
		name = g.cfg.DefaultName
	}

	u := identity.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    g.now(),
	}
	if err := g.store.InsertUser(ctx, u); err != nil {
		if identity.IsConflict(err) {
			return AuthResult{}, identity.OpError{Op: op, Kind: identity.ErrConflict, Msg: msgUserAlreadyExists}
		}
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return g.issue(op, u)
}

// Login authenticates a returning user.
//
// A missing account and a wrong password both yield the same Unauthorized
// error; the missing-account path still runs a dummy Argon2id verify.
func (g *Gateway) Login(ctx context.Context, email, password string) (AuthResult, error) {
	const op = "gateway.Login"

	email = identity.NormalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: msgCredentialsRequired}
	}

	u, err := g.store.FindUser(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			g.hasher.VerifyDummy(password)
			return AuthResult{}, identity.OpError{Op: op, Kind: identity.ErrUnauthorized, Msg: msgInvalidCredentials}
		}
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := g.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return AuthResult{}, identity.OpError{Op: op, Kind: identity.ErrUnauthorized, Msg: msgInvalidCredentials}
	}

	if g.cfg.RequireActivePurchase {
		p, err := g.store.FindPurchase(ctx, email)
		switch {
		case identity.IsNotFound(err):
			return AuthResult{}, identity.OpError{Op: op, Kind: identity.ErrForbidden, Msg: msgAccessDenied}
		case err != nil:
			return AuthResult{}, fmt.Errorf("%s: %w", op, err)
		case !p.Active():
			g.log.Debug("gateway.login.inactive_purchase", "status", string(p.Status))
			return AuthResult{}, identity.OpError{Op: op, Kind: identity.ErrForbidden, Msg: msgAccessDenied}
		}
	}

	if g.hasher.NeedsRehash(u.PasswordHash) {
		g.upgradeHash(ctx, email, password)
	}
	return g.issue(op, u)
}

// upgradeHash re-hashes a verified password under the current parameters.
// Failure only costs the upgrade; the login itself already succeeded.
func (g *Gateway) upgradeHash(ctx context.Context, email, password string) {
	enc, err := g.hasher.Hash(password, email)
	if err != nil {
		// Older passwords may predate a stricter policy.
		g.log.Debug("gateway.login.rehash_skipped", "err", err)
		return
	}
	if err := g.store.UpdatePasswordHash(ctx, email, enc); err != nil {
		g.log.Warn("gateway.login.rehash_failed", "err", err)
		return
	}
	g.log.Info("gateway.login.rehashed")
}

// CompleteOnboarding marks the user's onboarding as done. Repeating it is a
// no-op; an unknown email is NotFound.
func (g *Gateway) CompleteOnboarding(ctx context.Context, email string) error {
	const op = "gateway.CompleteOnboarding"

	email = identity.NormalizeEmail(email)
	if email == "" {
		return identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: msgEmailRequired}
	}

	if err := g.store.MarkOnboarded(ctx, email, g.now()); err != nil {
		if identity.IsNotFound(err) {
			return identity.OpError{Op: op, Kind: identity.ErrNotFound, Msg: msgUserNotFound}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Profile returns the public profile for email.
func (g *Gateway) Profile(ctx context.Context, email string) (PublicUser, error) {
	const op = "gateway.Profile"

	u, err := g.store.FindUser(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if identity.IsNotFound(err) {
			return PublicUser{}, identity.OpError{Op: op, Kind: identity.ErrNotFound, Msg: msgUserNotFound}
		}
		return PublicUser{}, fmt.Errorf("%s: %w", op, err)
	}
	return publicUser(u), nil
}

// Snapshot lists every stored purchase and user email.
func (g *Gateway) Snapshot(ctx context.Context) (Snapshot, error) {
	purchases, err := g.store.ListPurchaseEmails(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("gateway.Snapshot: %w", err)
	}
	users, err := g.store.ListUserEmails(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("gateway.Snapshot: %w", err)
	}
	return Snapshot{Purchases: purchases, Users: users}, nil
}

func (g *Gateway) issue(op string, u identity.User) (AuthResult, error) {
	tok, exp, err := g.tokens.Issue(session.Subject{Email: u.Email, Name: u.Name}, g.now())
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: issue token: %w", op, err)
	}
	return AuthResult{Token: tok, ExpiresAt: exp, User: publicUser(u)}, nil
}

func publicUser(u identity.User) PublicUser {
	return PublicUser{
		Email:                  u.Email,
		Name:                   u.Name,
		HasCompletedOnboarding: u.HasCompletedOnboarding,
	}
}
