package identity

import (
	"context"
	"time"
)

// PurchaseStatus is the entitlement state of a purchase. Only active grants access.
type PurchaseStatus string

const (
	PurchaseActive   PurchaseStatus = "active"
	PurchaseInactive PurchaseStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s PurchaseStatus) Valid() bool {
	return s == PurchaseActive || s == PurchaseInactive
}

// PurchaseSource records how a purchase entered the system.
type PurchaseSource string

const (
	SourceWebhook    PurchaseSource = "webhook"
	SourceSimulation PurchaseSource = "simulation"
)

// Purchase is evidence that an email is entitled to create an account.
// At most one Purchase exists per normalized email; later writes overwrite.
type Purchase struct {
	Email        string
	Name         string
	PurchaseID   string
	ProductID    string
	Status       PurchaseStatus
	PurchaseDate time.Time

	Source PurchaseSource
	// Event is the provider event name that produced this record, if any.
	Event string
}

// Active reports whether the purchase currently grants access.
func (p Purchase) Active() bool { return p.Status == PurchaseActive }

// User is the credential + profile record created when a buyer sets a password.
// PasswordHash is always an Argon2id PHC string; raw passwords are never stored.
type User struct {
	Email                  string
	Name                   string
	PasswordHash           string
	HasCompletedOnboarding bool

	CreatedAt   time.Time
	OnboardedAt *time.Time
}

// PurchaseStore persists purchase records keyed by normalized email.
type PurchaseStore interface {
	// UpsertPurchase inserts or overwrites the record for p.Email.
	UpsertPurchase(ctx context.Context, p Purchase) error
	// FindPurchase returns a NotFoundError when no record exists.
	FindPurchase(ctx context.Context, email string) (Purchase, error)
	ListPurchaseEmails(ctx context.Context) ([]string, error)
}

// UserStore persists user records keyed by normalized email.
type UserStore interface {
	// InsertUser fails with a ConflictError when a user already exists for u.Email.
	InsertUser(ctx context.Context, u User) error
	// FindUser returns a NotFoundError when no record exists.
	FindUser(ctx context.Context, email string) (User, error)
	// MarkOnboarded sets HasCompletedOnboarding=true; NotFoundError when absent.
	MarkOnboarded(ctx context.Context, email string, now time.Time) error
	// UpdatePasswordHash replaces the stored hash; NotFoundError when absent.
	UpdatePasswordHash(ctx context.Context, email, hash string) error
	ListUserEmails(ctx context.Context) ([]string, error)
}

// Store is the combined persistence boundary used by the auth gateway.
type Store interface {
	PurchaseStore
	UserStore
}
