package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps purchases and users in process memory.
// Data lives as long as the process; there is no persistence.
// Each method holds the mutex for a single map access only.
type MemoryStore struct {
	mu        sync.Mutex
	purchases map[string]Purchase
	users     map[string]User
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		purchases: make(map[string]Purchase),
		users:     make(map[string]User),
	}
}

// UpsertPurchase inserts or overwrites the purchase for the normalized email.
func (s *MemoryStore) UpsertPurchase(ctx context.Context, p Purchase) error {
	const op = "identity.UpsertPurchase"

	if err := ctx.Err(); err != nil {
		return err
	}
	p.Email = NormalizeEmail(p.Email)
	if p.Email == "" {
		return invalid(op, "email is required")
	}
	if !p.Status.Valid() {
		return invalid(op, "unknown purchase status")
	}
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = time.Now().UTC()
	}

	s.mu.Lock()
	s.purchases[p.Email] = p
	s.mu.Unlock()
	return nil
}

// FindPurchase looks up a purchase by email.
func (s *MemoryStore) FindPurchase(ctx context.Context, email string) (Purchase, error) {
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}
	key := NormalizeEmail(email)

	s.mu.Lock()
	p, ok := s.purchases[key]
	s.mu.Unlock()

	if !ok {
		return Purchase{}, NotFoundError{Op: "identity.FindPurchase", Resource: "purchase"}
	}
	return p, nil
}

// ListPurchaseEmails returns every purchase key in ascending order.
func (s *MemoryStore) ListPurchaseEmails(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]string, 0, len(s.purchases))
	for k := range s.purchases {
		out = append(out, k)
	}
	s.mu.Unlock()

	sort.Strings(out)
	return out, nil
}

// InsertUser creates a user; it never overwrites an existing one.
func (s *MemoryStore) InsertUser(ctx context.Context, u User) error {
	const op = "identity.InsertUser"

	if err := ctx.Err(); err != nil {
		return err
	}
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return invalid(op, "email is required")
	}
	if strings.TrimSpace(u.PasswordHash) == "" {
		return invalid(op, "password hash is required")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.Email]; exists {
		return ConflictError{Op: op, Field: "email"}
	}
	s.users[u.Email] = u
	return nil
}

// FindUser looks up a user by email.
func (s *MemoryStore) FindUser(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	key := NormalizeEmail(email)

	s.mu.Lock()
	u, ok := s.users[key]
	s.mu.Unlock()

	if !ok {
		return User{}, NotFoundError{Op: "identity.FindUser", Resource: "user"}
	}
	return u, nil
}

// MarkOnboarded sets the onboarding flag in place. Repeated calls are no-ops
// that keep the first completion time.
func (s *MemoryStore) MarkOnboarded(ctx context.Context, email string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	key := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[key]
	if !ok {
		return NotFoundError{Op: "identity.MarkOnboarded", Resource: "user"}
	}
	if !u.HasCompletedOnboarding {
		u.HasCompletedOnboarding = true
		u.OnboardedAt = &now
		s.users[key] = u
	}
	return nil
}

// UpdatePasswordHash swaps the stored hash for an existing user.
func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, email, hash string) error {
	const op = "identity.UpdatePasswordHash"

	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(hash) == "" {
		return invalid(op, "password hash is required")
	}
	key := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[key]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}
	u.PasswordHash = hash
	s.users[key] = u
	return nil
}

// ListUserEmails returns every user key in ascending order.
func (s *MemoryStore) ListUserEmails(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]string, 0, len(s.users))
	for k := range s.users {
		out = append(out, k)
	}
	s.mu.Unlock()

	sort.Strings(out)
	return out, nil
}
