// Package identity resolves anonymous guest users. A guest is identified by
// an opaque key the transport layer carries (a cookie in practice); this
// package knows nothing about cookies.
package identity

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a guest key resolves to no user.
var ErrNotFound = errors.New("identity: user not found")

// User is an anonymous learner.
type User struct {
	ID        string    `json:"id"`
	GuestKey  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Resolver maps guest keys to users and mints new identities.
type Resolver interface {
	// Resolve returns the user for a guest key, or ErrNotFound.
	Resolve(ctx context.Context, guestKey string) (User, error)
	// Create mints a fresh guest identity.
	Create(ctx context.Context) (User, error)
	// Exists reports whether a user ID references a known user.
	Exists(ctx context.Context, userID string) (bool, error)
}
