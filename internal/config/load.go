// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/inventoryapp/inventoryauth/internal/xdg"
)

// EnvPrefix marks the environment variables read by Load. A double
// underscore separates nesting levels: INVENTORYAUTH_AUTH__SIGNING_KEY sets
// auth.signing_key.
const EnvPrefix = "INVENTORYAUTH_"

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"database-url":  "database.url",
	"http-addr":     "http.addr",
	"metrics-addr":  "metrics.addr",
	"log-format":    "log.format",
	"log-level":     "log.level",
	"janitor":       "janitor.enabled",
	"janitor-every": "janitor.interval",
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. When empty the XDG default is used
	// if it exists.
	ConfigFile string
	// EnvFile is an explicit dotenv file. When empty DefaultEnvFile is read
	// if it exists.
	EnvFile string
	// Flags, if set, contributes the flags registered by BindFlags.
	Flags *pflag.FlagSet
	// Environ replaces os.Environ, for tests.
	Environ func() []string
}

// BindFlags registers the configuration flags on flags. Only flags the user
// actually sets override other sources.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("http-addr", "", "public API listen address")
	flags.String("metrics-addr", "", "metrics/health listen address (empty disables)")
	flags.String("log-format", "", "log format (json or text)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("janitor", true, "run the expired token janitor")
	flags.Duration("janitor-every", 0, "janitor sweep interval")
}

// Load merges every source over Default. It does not validate; callers
// that need a runnable config call Validate.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultValues(Default()), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	path := opts.ConfigFile
	if path == "" {
		path = xdg.DefaultConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", path).Wrap(err)
		}
	}

	environ, err := withDotenv(opts.EnvFile, opts.Environ)
	if err != nil {
		return nil, err
	}
	envProvider := env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
		EnvironFunc:   environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if opts.Flags != nil {
		flags := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(flags, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "decode configuration")
	}
	return cfg, nil
}

func envKey(k, v string) (string, any) {
	k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.ReplaceAll(k, "__", "."), v
}

// withDotenv returns an environ func whose result also holds the dotenv
// entries that the real environment does not already define.
func withDotenv(path string, environ func() []string) (func() []string, error) {
	if environ == nil {
		environ = os.Environ
	}

	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return environ, nil
		}
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "dotenv").With("path", path).Wrap(err)
	}

	return func() []string {
		base := environ()
		set := make(map[string]bool, len(base))
		for _, kv := range base {
			name, _, _ := strings.Cut(kv, "=")
			set[name] = true
		}
		out := base
		for name, value := range values {
			if !set[name] {
				out = append(out, name+"="+value)
			}
		}
		return out
	}, nil
}

func defaultValues(d Config) map[string]any {
	return map[string]any{
		"database.url":                 d.Database.URL,
		"database.connect_timeout":     d.Database.ConnectTimeout,
		"http.addr":                    d.HTTP.Addr,
		"http.read_timeout":            d.HTTP.ReadTimeout,
		"http.write_timeout":           d.HTTP.WriteTimeout,
		"http.shutdown_timeout":        d.HTTP.ShutdownTimeout,
		"http.rate_limit":              d.HTTP.RateLimit,
		"http.rate_burst":              d.HTTP.RateBurst,
		"metrics.addr":                 d.Metrics.Addr,
		"log.format":                   d.Log.Format,
		"log.level":                    d.Log.Level,
		"auth.signing_key":             d.Auth.SigningKey,
		"auth.issuer":                  d.Auth.Issuer,
		"auth.audience":                d.Auth.Audience,
		"auth.access_ttl":              d.Auth.AccessTTL,
		"auth.refresh_ttl":             d.Auth.RefreshTTL,
		"janitor.enabled":              d.Janitor.Enabled,
		"janitor.interval":             d.Janitor.Interval,
		"janitor.sweep_refresh_tokens": d.Janitor.SweepRefreshTokens,
	}
}
