package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	UpstreamURL        string   `mapstructure:"UPSTREAM_URL"`
	UpstreamTimeout    int      `mapstructure:"UPSTREAM_TIMEOUT_SECONDS"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	CacheMode          string   `mapstructure:"CACHE_MODE"`
	RedisURL           string   `mapstructure:"REDIS_URL"`
	SessionSigningKey  string   `mapstructure:"SESSION_SIGNING_KEY"`
	SessionIdleTimeout int      `mapstructure:"SESSION_IDLE_TIMEOUT_SECONDS"`
	SessionMaxAge      int      `mapstructure:"SESSION_MAX_AGE_SECONDS"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS       float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int      `mapstructure:"RATE_LIMIT_BURST"`
	TLSEnabled         bool     `mapstructure:"TLS_ENABLED"`
	TLSCertFile        string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile         string   `mapstructure:"TLS_KEY_FILE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 15)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CACHE_MODE", "") // auto-detect: "" -> inferred from REDIS_URL
	v.SetDefault("SESSION_IDLE_TIMEOUT_SECONDS", 900)
	v.SetDefault("SESSION_MAX_AGE_SECONDS", 86400)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("UPSTREAM_URL")
	v.BindEnv("UPSTREAM_TIMEOUT_SECONDS")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CACHE_MODE")
	v.BindEnv("REDIS_URL")
	v.BindEnv("SESSION_SIGNING_KEY")
	v.BindEnv("SESSION_IDLE_TIMEOUT_SECONDS")
	v.BindEnv("SESSION_MAX_AGE_SECONDS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("TLS_ENABLED")
	v.BindEnv("TLS_CERT_FILE")
	v.BindEnv("TLS_KEY_FILE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.UpstreamURL == "" {
		return nil, fmt.Errorf("UPSTREAM_URL is required")
	}

	if cfg.IsDev() && cfg.SessionSigningKey == "" {
		log.Println("WARNING: SESSION_SIGNING_KEY is not set; a random key is generated at startup.")
		log.Println("WARNING: Portal tokens will not survive a restart. Set a key for stable sessions.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the gateway is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedCacheMode returns the effective cache backend. If CACHE_MODE is
// explicitly set, it is returned. Otherwise the mode is inferred:
//   - REDIS_URL set → "redis"
//   - Otherwise     → "memory"
func (c *Config) ResolvedCacheMode() string {
	if c.CacheMode != "" {
		return c.CacheMode
	}
	if c.RedisURL != "" {
		return "redis"
	}
	return "memory"
}

// IdleTimeout returns the session idle timeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeout) * time.Second
}

// SessionMaxAgeDuration returns the absolute session lifetime as a duration.
func (c *Config) SessionMaxAgeDuration() time.Duration {
	return time.Duration(c.SessionMaxAge) * time.Second
}

// UpstreamTimeoutDuration returns the per-request upstream timeout.
func (c *Config) UpstreamTimeoutDuration() time.Duration {
	return time.Duration(c.UpstreamTimeout) * time.Second
}

// Validate checks that the configuration is safe to run. In production a
// stable SESSION_SIGNING_KEY of at least 32 bytes is required, sessions must
// not outlive the role cookie, and the cache mode must be a known backend.
func (c *Config) Validate() error {
	mode := c.ResolvedCacheMode()
	if mode != "memory" && mode != "redis" {
		return fmt.Errorf("CACHE_MODE must be \"memory\" or \"redis\", got %q", mode)
	}
	if mode == "redis" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when CACHE_MODE is \"redis\"")
	}

	if c.IsProduction() {
		if c.SessionSigningKey == "" {
			return fmt.Errorf("SESSION_SIGNING_KEY is required in production")
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production (server-side session store)")
		}
	}
	if c.SessionSigningKey != "" && len(c.SessionSigningKey) < 32 {
		return fmt.Errorf("SESSION_SIGNING_KEY must be at least 32 bytes, got %d", len(c.SessionSigningKey))
	}

	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT_SECONDS must be positive, got %d", c.SessionIdleTimeout)
	}
	if c.SessionMaxAge < c.SessionIdleTimeout {
		return fmt.Errorf("SESSION_MAX_AGE_SECONDS (%d) must not be smaller than SESSION_IDLE_TIMEOUT_SECONDS (%d)",
			c.SessionMaxAge, c.SessionIdleTimeout)
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
