package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements PurchaseStore and UserStore over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are quoted via pgx.Identifier.
// - Emails are normalized before they reach SQL, so primary keys are case-insensitive.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultSchema is the schema created by the embedded migrations.
const DefaultSchema = "poli"

// WithSchema sets the Postgres schema used by the store (default "poli").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: DefaultSchema,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// UpsertPurchase inserts or overwrites the purchase row for the normalized email.
func (s *PostgresStore) UpsertPurchase(ctx context.Context, p Purchase) error {
	const op = "identity.UpsertPurchase"

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

	purchases := pgIdent(s.schema, "purchases")
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+purchases+` (
		     email, name, purchase_id, product_id, status, purchase_date, source, event
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		   ON CONFLICT (email) DO UPDATE SET
		     name          = EXCLUDED.name,
		     purchase_id   = EXCLUDED.purchase_id,
		     product_id    = EXCLUDED.product_id,
		     status        = EXCLUDED.status,
		     purchase_date = EXCLUDED.purchase_date,
		     source        = EXCLUDED.source,
		     event         = EXCLUDED.event`,
		p.Email,
		p.Name,
		p.PurchaseID,
		pgNullString(p.ProductID),
		string(p.Status),
		p.PurchaseDate,
		string(p.Source),
		pgNullString(p.Event),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindPurchase looks up a purchase by email.
func (s *PostgresStore) FindPurchase(ctx context.Context, email string) (Purchase, error) {
	const op = "identity.FindPurchase"

	purchases := pgIdent(s.schema, "purchases")

	var (
		p         Purchase
		productID *string
		event     *string
		status    string
		source    string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT email, name, purchase_id, product_id, status, purchase_date, source, event
		   FROM `+purchases+`
		  WHERE email = $1`,
		NormalizeEmail(email),
	).Scan(&p.Email, &p.Name, &p.PurchaseID, &productID, &status, &p.PurchaseDate, &source, &event)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, NotFoundError{Op: op, Resource: "purchase"}
		}
		return Purchase{}, fmt.Errorf("%s: %w", op, err)
	}

	p.Status = PurchaseStatus(status)
	p.Source = PurchaseSource(source)
	if productID != nil {
		p.ProductID = *productID
	}
	if event != nil {
		p.Event = *event
	}
	p.PurchaseDate = p.PurchaseDate.UTC()
	return p, nil
}

// ListPurchaseEmails returns every purchase key in ascending order.
func (s *PostgresStore) ListPurchaseEmails(ctx context.Context) ([]string, error) {
	return s.listEmails(ctx, "identity.ListPurchaseEmails", "purchases")
}

// InsertUser creates a user row; a duplicate email maps to ConflictError.
func (s *PostgresStore) InsertUser(ctx context.Context, u User) error {
	const op = "identity.InsertUser"

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

	users := pgIdent(s.schema, "users")
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+users+` (
		     email, name, password_hash, has_completed_onboarding, created_at, onboarded_at
		   ) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.Email,
		u.Name,
		u.PasswordHash,
		u.HasCompletedOnboarding,
		u.CreatedAt,
		u.OnboardedAt,
	)
	if err != nil {
		if pgIsUniqueViolation(err) {
			return ConflictError{Op: op, Field: "email"}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindUser looks up a user by email.
func (s *PostgresStore) FindUser(ctx context.Context, email string) (User, error) {
	const op = "identity.FindUser"

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT email, name, password_hash, has_completed_onboarding, created_at, onboarded_at
		   FROM `+users+`
		  WHERE email = $1`,
		NormalizeEmail(email),
	).Scan(&u.Email, &u.Name, &u.PasswordHash, &u.HasCompletedOnboarding, &u.CreatedAt, &u.OnboardedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// MarkOnboarded sets the onboarding flag. The first completion time is kept.
func (s *PostgresStore) MarkOnboarded(ctx context.Context, email string, now time.Time) error {
	const op = "identity.MarkOnboarded"

	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+users+`
		    SET has_completed_onboarding = true,
		        onboarded_at = COALESCE(onboarded_at, $2)
		  WHERE email = $1`,
		NormalizeEmail(email), now,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// UpdatePasswordHash swaps the stored hash for an existing user.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, email, hash string) error {
	const op = "identity.UpdatePasswordHash"

	if strings.TrimSpace(hash) == "" {
		return invalid(op, "password hash is required")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+pgIdent(s.schema, "users")+` SET password_hash = $2 WHERE email = $1`,
		NormalizeEmail(email), hash,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// ListUserEmails returns every user key in ascending order.
func (s *PostgresStore) ListUserEmails(ctx context.Context) ([]string, error) {
	return s.listEmails(ctx, "identity.ListUserEmails", "users")
}

func (s *PostgresStore) listEmails(ctx context.Context, op, table string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT email FROM `+pgIdent(s.schema, table)+` ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func pgNullString(s string) *string {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return &v
}

func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" // unique_violation
}
