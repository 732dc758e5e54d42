package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("port: want 8080, got %q", cfg.Port)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("token ttl: want 1h, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Errorf("bcrypt cost: want 12, got %d", cfg.Auth.BcryptCost)
	}
	if cfg.Auth.CookieName != "jwt" {
		t.Errorf("cookie name: want jwt, got %q", cfg.Auth.CookieName)
	}
	if cfg.Storage.MaxFiles != 5 {
		t.Errorf("max files: want 5, got %d", cfg.Storage.MaxFiles)
	}
	if cfg.Storage.URLPrefix != "/uploads/images" {
		t.Errorf("url prefix: got %q", cfg.Storage.URLPrefix)
	}
	if !cfg.Reaper.Enabled || cfg.Reaper.GracePeriod != 24*time.Hour {
		t.Errorf("reaper: got %+v", cfg.Reaper)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("redis should be disabled by default, got %q", cfg.Redis.Addr)
	}
	if cfg.IsProduction() {
		t.Error("default env must not be production")
	}
}

func TestLoadWith_RequiresJWTSecret(t *testing.T) {
	if _, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         "s3cret",
		"ENV":                "production",
		"JWT_EXPIRES_IN":     "30m",
		"CORS_ALLOW_ORIGINS": "https://shop.example,https://admin.example",
		"REDIS_ADDR":         "redis:6379",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("expected production")
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("token ttl: got %v", cfg.Auth.TokenTTL)
	}
	if len(cfg.CORS.AllowOrigins) != 2 {
		t.Errorf("cors origins: got %v", cfg.CORS.AllowOrigins)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("redis addr: got %q", cfg.Redis.Addr)
	}
}

func TestLoadWith_RejectsNonPositiveMaxFiles(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "s3cret",
		"UPLOAD_MAX_FILES": "0",
	}))
	if err == nil {
		t.Fatal("expected error for UPLOAD_MAX_FILES=0")
	}
}
