package httpapi

import (
	"net/http"

	"github.com/ai-academy/academy-server/internal/identity"
	"github.com/ai-academy/academy-server/internal/progress"
)

// NewRouter wires the API handlers behind the guest identity middleware.
func NewRouter(api *API, resolver identity.Resolver, engine *progress.Engine, cookie GuestCookie) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/course", api.HandleCourse)
	mux.HandleFunc("GET /api/lessons/{order}", api.HandleLesson)
	mux.HandleFunc("POST /api/lessons/{order}/attempts", api.HandleAttempt)
	mux.HandleFunc("GET /api/progress", api.HandleProgress)
	mux.HandleFunc("GET /api/progress/export", api.HandleExport)
	mux.HandleFunc("GET /api/badges", api.HandleBadges)

	return WithGuest(resolver, engine, cookie, mux)
}
