// Package config loads configuration for the fhirpath demonstration hosts
// (cmd/fhirpath-eval, cmd/fhirpath-server). The evaluator core itself reads
// no configuration and no environment variables, per its Non-goals; this
// package exists only for the host layer.
package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string `mapstructure:"PORT"`
	Env           string `mapstructure:"ENV"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32  `mapstructure:"DB_MIN_CONNS"`
	AuthMode      string `mapstructure:"AUTH_MODE"`
	AuthIssuer    string `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL   string `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience  string `mapstructure:"AUTH_AUDIENCE"`
	DecimalDigits int32  `mapstructure:"DECIMAL_PRECISION"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from the environment (and an optional .env file),
// applying the same defaults-then-bind-then-unmarshal sequence the teacher's
// server config uses.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("DECIMAL_PRECISION", 15)
	v.SetDefault("LOG_LEVEL", "info")

	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_MODE")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("DECIMAL_PRECISION")
	v.BindEnv("LOG_LEVEL")

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DecimalDigits <= 0 {
		return nil, fmt.Errorf("DECIMAL_PRECISION must be positive, got %d", cfg.DecimalDigits)
	}

	if cfg.IsDev() {
		log.Println("WARNING: fhirpath-server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: requests without a bearer token are admitted with default claims.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the host is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode mirrors the teacher's auto-detection: an explicit
// AUTH_MODE wins, otherwise development implies no auth and a configured
// AUTH_ISSUER implies external OIDC/JWKS validation.
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	if c.AuthIssuer != "" {
		return "external"
	}
	return "standalone"
}

// Validate checks that the configuration is safe to run: ENV=production and
// AUTH_MODE=external must have an AUTH_ISSUER configured so the demo server
// does not silently accept unauthenticated requests in production.
func (c *Config) Validate() error {
	if c.IsProduction() && c.AuthIssuer == "" {
		return fmt.Errorf("AUTH_ISSUER must be set when ENV is \"production\"")
	}
	mode := c.ResolvedAuthMode()
	if mode == "external" && c.AuthIssuer == "" {
		return fmt.Errorf(
			"AUTH_ISSUER must be set when AUTH_MODE is \"external\" (current ENV=%q)", c.Env)
	}
	if mode != "development" && mode != "standalone" && mode != "external" {
		return fmt.Errorf("AUTH_MODE must be \"development\", \"standalone\", or \"external\", got %q", mode)
	}
	if c.DecimalDigits <= 0 {
		return fmt.Errorf("DECIMAL_PRECISION must be positive, got %d", c.DecimalDigits)
	}
	return nil
}
