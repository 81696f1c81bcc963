// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

// Package config loads inventoryauth configuration from defaults, a YAML
// file, a .env file, INVENTORYAUTH_* environment variables and flags, in
// that order of increasing precedence.
package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/inventoryapp/inventoryauth/internal/auth"
	"github.com/inventoryapp/inventoryauth/internal/logging"
	"github.com/inventoryapp/inventoryauth/internal/store"
)

// CodeInvalid is the error code of every validation failure.
const CodeInvalid = "CONFIG_INVALID"

const redacted = "REDACTED"

// Config is the full service configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	HTTP     HTTPConfig     `koanf:"http" yaml:"http"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics"`
	Log      LogConfig      `koanf:"log" yaml:"log"`
	Auth     AuthConfig     `koanf:"auth" yaml:"auth"`
	Janitor  JanitorConfig  `koanf:"janitor" yaml:"janitor"`
}

// DatabaseConfig locates PostgreSQL.
type DatabaseConfig struct {
	URL            string        `koanf:"url" yaml:"url" jsonschema:"description=PostgreSQL connection URL"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" yaml:"connect_timeout" jsonschema:"type=string,description=How long startup waits for the database"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout" jsonschema:"type=string"`
	WriteTimeout    time.Duration `koanf:"write_timeout" yaml:"write_timeout" jsonschema:"type=string"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" jsonschema:"type=string"`
	// Requests per second allowed per client on credential endpoints; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit" jsonschema:"minimum=0"`
	RateBurst int     `koanf:"rate_burst" yaml:"rate_burst" jsonschema:"minimum=0"`
}

// MetricsConfig configures the metrics and health listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// LogConfig selects the slog output.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// AuthConfig carries the token signing settings.
type AuthConfig struct {
	SigningKey string        `koanf:"signing_key" yaml:"signing_key" jsonschema:"description=HMAC key used to sign access tokens"`
	Issuer     string        `koanf:"issuer" yaml:"issuer"`
	Audience   string        `koanf:"audience" yaml:"audience"`
	AccessTTL  time.Duration `koanf:"access_ttl" yaml:"access_ttl" jsonschema:"type=string"`
	RefreshTTL time.Duration `koanf:"refresh_ttl" yaml:"refresh_ttl" jsonschema:"type=string"`
}

// JanitorConfig controls the expired token sweep.
type JanitorConfig struct {
	Enabled            bool          `koanf:"enabled" yaml:"enabled"`
	Interval           time.Duration `koanf:"interval" yaml:"interval" jsonschema:"type=string"`
	SweepRefreshTokens bool          `koanf:"sweep_refresh_tokens" yaml:"sweep_refresh_tokens"`
}

// Default returns the built-in defaults. Signing key, issuer, audience and
// database URL have none.
func Default() Config {
	janitor := auth.DefaultJanitorConfig()
	return Config{
		Database: DatabaseConfig{ConnectTimeout: store.DefaultConnectTimeout},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       5,
			RateBurst:       10,
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9101"},
		Log:     LogConfig{Format: logging.FormatJSON, Level: "info"},
		Auth: AuthConfig{
			AccessTTL:  auth.DefaultAccessTTL,
			RefreshTTL: auth.DefaultRefreshTTL,
		},
		Janitor: JanitorConfig{
			Enabled:            true,
			Interval:           janitor.Interval,
			SweepRefreshTokens: janitor.SweepRefreshTokens,
		},
	}
}

// Validate reports every problem at once under CONFIG_INVALID.
func (c *Config) Validate() error {
	var problems []string
	add := func(key, msg string) { problems = append(problems, key+" "+msg) }

	if c.Database.URL == "" {
		add("database.url", "is required")
	}
	if c.HTTP.Addr == "" {
		add("http.addr", "is required")
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 {
		add("http.rate_limit", "must not be negative")
	}
	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatText {
		add("log.format", "must be json or text")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "must be debug, info, warn or error")
	}
	if c.Auth.SigningKey == "" {
		add("auth.signing_key", "is required")
	}
	if c.Auth.Issuer == "" {
		add("auth.issuer", "is required")
	}
	if c.Auth.Audience == "" {
		add("auth.audience", "is required")
	}
	if c.Auth.AccessTTL <= 0 {
		add("auth.access_ttl", "must be positive")
	}
	if c.Auth.RefreshTTL <= 0 {
		add("auth.refresh_ttl", "must be positive")
	}
	if c.Janitor.Enabled && c.Janitor.Interval <= 0 {
		add("janitor.interval", "must be positive")
	}

	if len(problems) > 0 {
		return oops.Code(CodeInvalid).
			With("problems", problems).
			Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IssuerConfig converts the auth section for auth.NewTokenIssuer.
func (c *Config) IssuerConfig() auth.IssuerConfig {
	return auth.IssuerConfig{
		SigningKey: []byte(c.Auth.SigningKey),
		Issuer:     c.Auth.Issuer,
		Audience:   c.Auth.Audience,
		AccessTTL:  c.Auth.AccessTTL,
		RefreshTTL: c.Auth.RefreshTTL,
	}
}

// JanitorConfig converts the janitor section for auth.NewJanitor.
func (c *Config) JanitorConfig() auth.JanitorConfig {
	return auth.JanitorConfig{
		Interval:           c.Janitor.Interval,
		SweepRefreshTokens: c.Janitor.SweepRefreshTokens,
	}
}

// Redacted returns a copy safe to print: the signing key and any database
// password are masked.
func (c Config) Redacted() Config {
	if c.Auth.SigningKey != "" {
		c.Auth.SigningKey = redacted
	}
	c.Database.URL = redactURL(c.Database.URL)
	return c
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
