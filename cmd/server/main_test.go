package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ai-academy/academy-server/internal/platform/config"
)

func TestHealthzAndAPIMount(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mux := newMux(api, nil, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "api routes to the router",
			path:       "/api/course",
			wantStatus: http.StatusTeapot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestNewLogHandler(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantDebug bool
	}{
		{"default info", config.LogConfig{Level: "info", Format: "json"}, false},
		{"debug level", config.LogConfig{Level: "debug", Format: "json"}, true},
		{"text format", config.LogConfig{Level: "warn", Format: "text"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newLogHandler(tt.cfg)
			got := h.Enabled(t.Context(), slog.LevelDebug)
			if got != tt.wantDebug {
				t.Errorf("Enabled(debug) = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}
