package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestInit_MissingRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("ENCRYPTION_KEY", "")

	var buf bytes.Buffer
	_, err := Init(&buf)
	if err == nil {
		t.Fatal("expected error for missing required env vars")
	}
	if !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInit_Success(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/plantcare?sslmode=disable")
	t.Setenv("SECRET_KEY", "test-signing-secret")
	t.Setenv("ENCRYPTION_KEY", "test-encryption-key")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
}

func TestMaskDatabaseURL(t *testing.T) {
	masked := maskDatabaseURL("postgres://user:secret@db:5432/plantcare")
	if strings.Contains(masked, "secret") {
		t.Errorf("masked URL leaks credentials: %q", masked)
	}
	if maskDatabaseURL("short") != "***" {
		t.Error("short URLs should be fully masked")
	}
}
