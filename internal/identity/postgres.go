package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresResolver is a PostgreSQL-backed Resolver.
type PostgresResolver struct {
	pool *pgxpool.Pool
}

// NewPostgresResolver creates a PostgreSQL-backed resolver.
func NewPostgresResolver(pool *pgxpool.Pool) (*PostgresResolver, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresResolver{pool: pool}, nil
}

// EnsureSchema creates the users table if it does not exist. It must run
// before the progress store's schema, which references users.
func (r *PostgresResolver) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			guest_key  TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	return nil
}

func (r *PostgresResolver) Resolve(ctx context.Context, guestKey string) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT id, guest_key, created_at FROM users WHERE guest_key = $1`,
		guestKey,
	).Scan(&u.ID, &u.GuestKey, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// Create mints a new guest identity. Two racing creations for the same key
// cannot both survive: the guest_key unique constraint rejects the loser,
// which then re-reads the winner's row.
func (r *PostgresResolver) Create(ctx context.Context) (User, error) {
	u := User{
		ID:       uuid.NewString(),
		GuestKey: uuid.NewString(),
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, guest_key) VALUES ($1, $2)
		 ON CONFLICT (guest_key) DO NOTHING`,
		u.ID, u.GuestKey,
	)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	// Re-read so the caller sees whichever row actually won.
	return r.Resolve(ctx, u.GuestKey)
}

func (r *PostgresResolver) Exists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1`, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup user: %w", err)
	}
	return true, nil
}
