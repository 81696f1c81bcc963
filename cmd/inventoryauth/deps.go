// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inventoryapp/inventoryauth/internal/auth"
	"github.com/inventoryapp/inventoryauth/internal/auth/postgres"
	"github.com/inventoryapp/inventoryauth/internal/httpapi"
	"github.com/inventoryapp/inventoryauth/internal/observability"
	"github.com/inventoryapp/inventoryauth/internal/store"
)

// Deps contains injectable dependencies for the subcommands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// ConnectDB opens the database pool.
	// Default: store.Connect
	ConnectDB func(ctx context.Context, url string, timeout time.Duration) (Database, error)

	// NewMigrator creates a schema migrator.
	// Default: store.NewMigrator
	NewMigrator func(url string) (Migrator, error)

	// NewObservabilityServer creates the metrics and health server.
	// Default: observability.NewServer
	NewObservabilityServer func(addr string, isReady observability.ReadinessChecker) ObservabilityServer

	// NewHTTPServer creates the public API server.
	// Default: httpapi.NewServer
	NewHTTPServer func(cfg httpapi.ServerConfig, handler http.Handler) HTTPServer

	// Hasher derives password hashes.
	// Default: auth.NewArgon2idHasher
	Hasher auth.PasswordHasher
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.ConnectDB == nil {
		out.ConnectDB = func(ctx context.Context, url string, timeout time.Duration) (Database, error) {
			return store.Connect(ctx, url, timeout)
		}
	}
	if out.NewMigrator == nil {
		out.NewMigrator = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}
	if out.NewObservabilityServer == nil {
		out.NewObservabilityServer = func(addr string, isReady observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, isReady)
		}
	}
	if out.NewHTTPServer == nil {
		out.NewHTTPServer = func(cfg httpapi.ServerConfig, handler http.Handler) HTTPServer {
			return httpapi.NewServer(cfg, handler)
		}
	}
	if out.Hasher == nil {
		out.Hasher = auth.NewArgon2idHasher()
	}
	return &out
}

// Database is the pool the repositories run on; *pgxpool.Pool satisfies it.
type Database interface {
	postgres.DB
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
	Status() (store.MigrationStatus, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
	Registerer() prometheus.Registerer
}

// HTTPServer wraps the methods used from httpapi.Server.
type HTTPServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
