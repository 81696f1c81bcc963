// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Default connection retry parameters.
const (
	DefaultConnectTimeout = 30 * time.Second
	connectBaseBackoff    = 250 * time.Millisecond
	connectMaxBackoff     = 5 * time.Second
)

// pinger is the part of a pool Connect needs to confirm the database is up.
type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pgx pool against databaseURL and pings it until it answers
// or timeout elapses. The database is often still starting when the service
// comes up under compose, so failed pings back off exponentially.
func Connect(ctx context.Context, databaseURL string, timeout time.Duration) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, oops.Code("STORE_CONFIG_INVALID").Errorf("database URL is required")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("STORE_CONFIG_INVALID").With("operation", "parse database URL").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := waitReady(ctx, pool, timeout); err != nil {
		pool.Close()
		return nil, err
	}

	slog.InfoContext(ctx, "database connected",
		"host", cfg.ConnConfig.Host,
		"database", cfg.ConnConfig.Database,
		"max_conns", cfg.MaxConns)
	return pool, nil
}

// waitReady pings p with capped exponential backoff until it succeeds, ctx
// is cancelled, or timeout elapses.
func waitReady(ctx context.Context, p pinger, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := retry.WithCappedDuration(connectMaxBackoff, retry.NewExponential(connectBaseBackoff))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			slog.DebugContext(ctx, "database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			With("timeout", timeout.String()).
			Wrap(err)
	}
	return nil
}
