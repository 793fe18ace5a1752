package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.NotifyBackend != NotifyBackendMemory {
			t.Errorf("expected memory backend, got %s", cfg.NotifyBackend)
		}
		if cfg.NotifyMaxAttempts != 3 {
			t.Errorf("expected 3 attempts, got %d", cfg.NotifyMaxAttempts)
		}
		if cfg.JWTExpirationDur != 24*time.Hour {
			t.Errorf("expected 24h expiry, got %s", cfg.JWTExpirationDur)
		}
	})

	t.Run("trims_trailing_slash_from_public_url", func(t *testing.T) {
		t.Setenv("PUBLIC_BASE_URL", "https://tally.example.com/")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.PublicBaseURL != "https://tally.example.com" {
			t.Errorf("expected trimmed URL, got %s", cfg.PublicBaseURL)
		}
	})

	t.Run("rejects_unknown_backend", func(t *testing.T) {
		t.Setenv("NOTIFY_BACKEND", "kafka")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown backend")
		}
	})

	t.Run("rejects_non_numeric_workers", func(t *testing.T) {
		t.Setenv("NOTIFY_WORKERS", "many")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for non-numeric NOTIFY_WORKERS")
		}
	})

	t.Run("invalid_duration_falls_back", func(t *testing.T) {
		t.Setenv("JWT_EXPIRES_IN", "soon")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.JWTExpirationDur != 24*time.Hour {
			t.Errorf("expected fallback to 24h, got %s", cfg.JWTExpirationDur)
		}
	})
}
