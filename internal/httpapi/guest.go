package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ai-academy/academy-server/internal/identity"
	"github.com/ai-academy/academy-server/internal/progress"
)

// GuestCookie configures the identity cookie.
type GuestCookie struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

type userKey struct{}

// userFrom returns the guest identity attached by WithGuest.
func userFrom(r *http.Request) (identity.User, bool) {
	u, ok := r.Context().Value(userKey{}).(identity.User)
	return u, ok
}

// WithGuest resolves the guest identity cookie on every request, minting a
// new user with the first lesson unlocked when the cookie is absent or
// stale, and attaches the user to the request context.
func WithGuest(resolver identity.Resolver, engine *progress.Engine, cookie GuestCookie, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, fresh, err := resolveGuest(r, resolver, engine, cookie)
		if err != nil {
			slog.Error("guest resolution failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"})
			return
		}
		if fresh {
			http.SetCookie(w, &http.Cookie{
				Name:     cookie.Name,
				Value:    user.GuestKey,
				Path:     "/",
				MaxAge:   int(cookie.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func resolveGuest(r *http.Request, resolver identity.Resolver, engine *progress.Engine, cookie GuestCookie) (identity.User, bool, error) {
	if c, err := r.Cookie(cookie.Name); err == nil && c.Value != "" {
		user, err := resolver.Resolve(r.Context(), c.Value)
		if err == nil {
			return user, false, nil
		}
		if !errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, false, err
		}
		// A stale cookie falls through to a fresh identity.
	}

	user, err := resolver.Create(r.Context())
	if err != nil {
		return identity.User{}, false, err
	}
	if err := engine.InitUser(r.Context(), user.ID); err != nil {
		return identity.User{}, false, err
	}
	slog.Info("guest created", "user_id", user.ID)
	return user, true, nil
}
