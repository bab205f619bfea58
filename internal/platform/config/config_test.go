package config

import (
	"os"
	"testing"
	"time"
)

// clearEnv unsets all ACADEMY_ environment variables for a clean test.
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"ACADEMY_SERVER_PORT",
		"ACADEMY_SERVER_HOST",
		"ACADEMY_DATABASE_URL",
		"ACADEMY_DATABASE_MAX_CONNS",
		"ACADEMY_DATABASE_MIN_CONNS",
		"ACADEMY_CACHE_URL",
		"ACADEMY_CACHE_SUMMARY_TTL",
		"ACADEMY_COURSE_PATH",
		"ACADEMY_GUEST_COOKIE_NAME",
		"ACADEMY_GUEST_COOKIE_MAX_AGE",
		"ACADEMY_GUEST_COOKIE_SECURE",
		"ACADEMY_LOG_LEVEL",
		"ACADEMY_LOG_FORMAT",
	}
	for _, v := range envVars {
		_ = os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("Database.MaxConns = %d, want 25", cfg.Database.MaxConns)
	}
	if cfg.Guest.CookieName != "guest_key" {
		t.Errorf("Guest.CookieName = %q, want guest_key", cfg.Guest.CookieName)
	}
	if cfg.Guest.CookieMaxAge != 365*24*time.Hour {
		t.Errorf("Guest.CookieMaxAge = %v, want 1 year", cfg.Guest.CookieMaxAge)
	}
	if cfg.Cache.URL != "" {
		t.Errorf("Cache.URL = %q, want empty (cache disabled by default)", cfg.Cache.URL)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACADEMY_SERVER_PORT", "9090")
	t.Setenv("ACADEMY_COURSE_PATH", "/srv/content/course.yaml")
	t.Setenv("ACADEMY_CACHE_SUMMARY_TTL", "2m")
	t.Setenv("ACADEMY_GUEST_COOKIE_SECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Course.Path != "/srv/content/course.yaml" {
		t.Errorf("Course.Path = %q, want /srv/content/course.yaml", cfg.Course.Path)
	}
	if cfg.Cache.SummaryTTL != 2*time.Minute {
		t.Errorf("Cache.SummaryTTL = %v, want 2m", cfg.Cache.SummaryTTL)
	}
	if !cfg.Guest.CookieSecure {
		t.Error("Guest.CookieSecure = false, want true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"missing-database-url", func(c *Config) { c.Database.URL = "" }, true},
		{"missing-course-path", func(c *Config) { c.Course.Path = "" }, true},
		{"empty-cookie-name", func(c *Config) { c.Guest.CookieName = "" }, true},
		{"port-out-of-range", func(c *Config) { c.Server.Port = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
