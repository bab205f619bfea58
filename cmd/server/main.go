package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ai-academy/academy-server/internal/catalog"
	"github.com/ai-academy/academy-server/internal/httpapi"
	"github.com/ai-academy/academy-server/internal/identity"
	"github.com/ai-academy/academy-server/internal/platform/cache"
	"github.com/ai-academy/academy-server/internal/platform/config"
	"github.com/ai-academy/academy-server/internal/platform/database"
	"github.com/ai-academy/academy-server/internal/progress"
	"github.com/ai-academy/academy-server/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(newLogHandler(cfg.Log)))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cat, err := catalog.Load(cfg.Course.Path)
	if err != nil {
		return fmt.Errorf("loading course catalog: %w", err)
	}

	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	resolver, err := identity.NewPostgresResolver(db.Pool)
	if err != nil {
		return err
	}
	store, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		return err
	}

	// The users table must exist before lesson_progress references it.
	if err := resolver.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	var c *cache.Cache
	if cfg.Cache.URL != "" {
		c, err = cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return fmt.Errorf("connecting to cache: %w", err)
		}
		defer c.Close()
	} else {
		slog.Info("cache disabled, summary reads hit the store")
	}

	engine, err := progress.NewEngine(progress.EngineConfig{
		Catalog:    cat,
		Store:      store,
		Users:      resolver,
		Cache:      c,
		SummaryTTL: cfg.Cache.SummaryTTL,
	})
	if err != nil {
		return err
	}
	queries := progress.NewQueries(cat, store, c, cfg.Cache.SummaryTTL)

	reports, err := report.NewBuilder(cat, queries)
	if err != nil {
		return err
	}
	api, err := httpapi.NewAPI(cat, engine, queries, reports)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(api, resolver, engine, httpapi.GuestCookie{
		Name:   cfg.Guest.CookieName,
		MaxAge: cfg.Guest.CookieMaxAge,
		Secure: cfg.Guest.CookieSecure,
	})

	mux := newMux(router, db, c)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "lessons", cat.LessonCount())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newMux mounts the API router next to the health check endpoints.
func newMux(api http.Handler, db *database.DB, c *cache.Cache) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz(db, c))
	mux.Handle("/api/", api)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReadyz(db *database.DB, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := db.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		if c != nil {
			if err := c.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"cache unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}

func newLogHandler(cfg config.LogConfig) slog.Handler {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}
