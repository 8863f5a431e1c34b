package config

import (
	"strings"
	"testing"
	"time"
)

// setRequiredEnv は必須環境変数をすべて設定する。
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/plantcare?sslmode=disable")
	t.Setenv("SECRET_KEY", "test-signing-secret")
	t.Setenv("ENCRYPTION_KEY", "test-encryption-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AccessTokenExpires != 30*time.Minute {
		t.Errorf("AccessTokenExpires = %v, want 30m", cfg.AccessTokenExpires)
	}
	if cfg.UploadDirectory != "photos" {
		t.Errorf("UploadDirectory = %q, want %q", cfg.UploadDirectory, "photos")
	}
	if cfg.MaxFileSize != 10*1024*1024 {
		t.Errorf("MaxFileSize = %d, want %d", cfg.MaxFileSize, 10*1024*1024)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
	if cfg.RateLimitLogin != 10 {
		t.Errorf("RateLimitLogin = %d, want 10", cfg.RateLimitLogin)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q", cfg.CORSAllowedOrigin)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("UPLOAD_DIRECTORY", "/var/lib/plantcare/photos")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AccessTokenExpires != 5*time.Minute {
		t.Errorf("AccessTokenExpires = %v, want 5m", cfg.AccessTokenExpires)
	}
	if cfg.UploadDirectory != "/var/lib/plantcare/photos" {
		t.Errorf("UploadDirectory = %q", cfg.UploadDirectory)
	}
	if cfg.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize = %d, want 1048576", cfg.MaxFileSize)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENCRYPTION_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing ENCRYPTION_KEY")
	}
	if !strings.Contains(err.Error(), "ENCRYPTION_KEY") {
		t.Errorf("error message should name the missing variable: %v", err)
	}
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AccessTokenExpires != 30*time.Minute {
		t.Errorf("AccessTokenExpires = %v, want default 30m", cfg.AccessTokenExpires)
	}
}
