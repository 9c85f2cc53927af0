package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_KEY", "")

	cfg := Load()

	if cfg.APIBaseURL != "http://api-pickpoint.isavralabel.com/api" {
		t.Errorf("unexpected api url %q", cfg.APIBaseURL)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.APITimeout != 15*time.Second || cfg.SessionTTL != 168*time.Hour {
		t.Errorf("unexpected durations %v %v", cfg.APITimeout, cfg.SessionTTL)
	}
	if len(cfg.SessionSecret) == 0 {
		t.Error("expected a generated session secret")
	}
	if len(cfg.CSRFKey) != 32 {
		t.Errorf("expected a 32 byte csrf key, got %d", len(cfg.CSRFKey))
	}
	if cfg.CookieSecure {
		t.Error("expected insecure cookies by default")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PICKPOINT_API_URL", "https://api.example.test/api/")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("REDIS_ADDRESS", "redis:6379")

	cfg := Load()

	if cfg.APIBaseURL != "https://api.example.test/api" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.Port != "9090" || string(cfg.SessionSecret) != "s3cret" || !cfg.CookieSecure {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.APITimeout != 3*time.Second || cfg.RedisAddress != "redis:6379" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	if err := os.WriteFile(path, []byte("PORT: \"7070\"\nACTIVITY_QUEUE_NAME: audit\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONSOLE_CONFIG_FILE", path)

	cfg := Load()

	if cfg.ActivityQueueName != "audit" {
		t.Errorf("expected queue from file, got %q", cfg.ActivityQueueName)
	}
	if cfg.Port != "7070" {
		t.Errorf("expected port from file, got %q", cfg.Port)
	}
}

func TestLoad_InvalidDurationPanics(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")

	defer func() {
		if recover() == nil {
			t.Error("expected Load to panic on an invalid duration")
		}
	}()
	Load()
}

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(BreakerPickPointAPI)
	if cb.Name() != BreakerPickPointAPI {
		t.Errorf("expected name %q, got %q", BreakerPickPointAPI, cb.Name())
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected closed breaker, got %s", cb.State())
	}
}
