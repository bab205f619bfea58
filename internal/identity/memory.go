package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryResolver is an in-memory Resolver implementation for tests and
// local development.
type MemoryResolver struct {
	mu     sync.RWMutex
	byKey  map[string]User
	byID   map[string]User
}

// NewMemoryResolver creates an empty in-memory resolver.
func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{
		byKey: make(map[string]User),
		byID:  make(map[string]User),
	}
}

func (r *MemoryResolver) Resolve(_ context.Context, guestKey string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byKey[guestKey]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryResolver) Create(_ context.Context) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := User{
		ID:        uuid.NewString(),
		GuestKey:  uuid.NewString(),
		CreatedAt: time.Now(),
	}
	r.byKey[u.GuestKey] = u
	r.byID[u.ID] = u
	return u, nil
}

func (r *MemoryResolver) Exists(_ context.Context, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byID[userID]
	return ok, nil
}
