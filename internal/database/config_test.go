package database

import (
	"testing"

	"tally/internal/config"
)

func TestConfig(t *testing.T) {
	cfg := NewConfig(&config.Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "tally",
		DBPassword: "secret",
		DBName:     "ledger",
		DBSSLMode:  "require",
	})

	t.Run("dsn", func(t *testing.T) {
		want := "host=db port=5433 user=tally password=secret dbname=ledger sslmode=require"
		if got := cfg.DSN(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("url", func(t *testing.T) {
		want := "postgres://tally:secret@db:5433/ledger?sslmode=require"
		if got := cfg.URL(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}
