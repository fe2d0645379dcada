package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test, ,http://b.test ")
	t.Setenv("MEDIA_MAX_UPLOAD_MB", "2")

	cfg := Load()

	if cfg.JWTAccessTTL != 30*time.Minute {
		t.Fatalf("expected access ttl fallback of 30m, got %s", cfg.JWTAccessTTL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://a.test" || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %#v", cfg.AllowedOrigins)
	}
	if cfg.MaxUploadBytes() != 2<<20 {
		t.Fatalf("expected 2MiB upload limit, got %d", cfg.MaxUploadBytes())
	}
}

func TestStorageEnabled(t *testing.T) {
	cfg := &Config{S3AccessKeyID: "key"}
	if cfg.StorageEnabled() {
		t.Fatalf("storage must require both key id and secret")
	}
	cfg.S3SecretAccessKey = "secret"
	if !cfg.StorageEnabled() {
		t.Fatalf("expected storage to be enabled")
	}
}
