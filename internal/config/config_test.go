package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Port:               "8080",
		Env:                "development",
		UpstreamURL:        "http://localhost:9000",
		UpstreamTimeout:    15,
		SessionIdleTimeout: 900,
		SessionMaxAge:      86400,
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestResolvedCacheMode(t *testing.T) {
	cfg := validConfig()
	if got := cfg.ResolvedCacheMode(); got != "memory" {
		t.Errorf("expected memory, got %q", got)
	}

	cfg.RedisURL = "redis://localhost:6379"
	if got := cfg.ResolvedCacheMode(); got != "redis" {
		t.Errorf("expected redis inferred from REDIS_URL, got %q", got)
	}

	cfg.CacheMode = "memory"
	if got := cfg.ResolvedCacheMode(); got != "memory" {
		t.Errorf("explicit CACHE_MODE should win, got %q", got)
	}
}

func TestValidateRejectsUnknownCacheMode(t *testing.T) {
	cfg := validConfig()
	cfg.CacheMode = "memcached"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown cache mode")
	}
}

func TestValidateRedisModeRequiresURL(t *testing.T) {
	cfg := validConfig()
	cfg.CacheMode = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when CACHE_MODE=redis without REDIS_URL")
	}
}

func TestValidateProductionRequiresSigningKey(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "production"
	cfg.DatabaseURL = "postgres://localhost/portal"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for production without SESSION_SIGNING_KEY")
	}

	cfg.SessionSigningKey = "short"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Fatalf("expected key length error, got %v", err)
	}

	cfg.SessionSigningKey = strings.Repeat("k", 32)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid production config, got %v", err)
	}
}

func TestValidateProductionRequiresDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "production"
	cfg.SessionSigningKey = strings.Repeat("k", 32)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for production without DATABASE_URL")
	}
}

func TestValidateSessionWindows(t *testing.T) {
	cfg := validConfig()
	cfg.SessionIdleTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive idle timeout")
	}

	cfg.SessionIdleTimeout = 900
	cfg.SessionMaxAge = 600
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max age is below idle timeout")
	}
}

func TestValidateTLS(t *testing.T) {
	cfg := validConfig()
	cfg.TLSEnabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for TLS without cert file")
	}
	cfg.TLSCertFile = "cert.pem"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for TLS without key file")
	}
	cfg.TLSKeyFile = "key.pem"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid TLS config, got %v", err)
	}
}
