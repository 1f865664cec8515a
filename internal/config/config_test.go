package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.API.BaseURL == "" || cfg.Storage.Backend == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Fatalf("unexpected default timeout: %v", cfg.API.Timeout)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("BLOG_API_URL", "http://blog.example.com/api")
	t.Setenv("BLOG_STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.BaseURL != "http://blog.example.com/api" {
		t.Fatalf("override not applied: %+v", cfg.API)
	}
	if cfg.Redis.RedisAddr() != "redis.internal:6380" {
		t.Fatalf("unexpected redis addr: %s", cfg.Redis.RedisAddr())
	}
}

func TestLoadConfig_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("BLOG_STORAGE_BACKEND", "carrier-pigeon")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error for an unknown storage backend")
	}
}
