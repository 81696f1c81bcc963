// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inventoryapp/inventoryauth/internal/auth"
	"github.com/inventoryapp/inventoryauth/internal/auth/postgres"
)

const defaultSweepTimeout = time.Minute

func newSweepCmd(deps *Deps) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired tokens once",
		Long: `Run a single janitor sweep: delete expired access tokens and, unless
janitor.sweep_refresh_tokens is false, expired refresh tokens.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadDatabaseConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := setupLogging(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			db, err := deps.ConnectDB(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
			if err != nil {
				return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
			}
			defer db.Close()

			jcfg := cfg.JanitorConfig()
			jcfg.Logger = logger
			janitor := auth.NewJanitor(jcfg, postgres.NewTokenRepository(db), postgres.NewTransactor(db), nil)
			res, err := janitor.RunOnce(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Deleted %d expired access token(s) and %d expired refresh token(s)\n",
				res.AccessTokens, res.RefreshTokens)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultSweepTimeout, "timeout for the sweep")

	return cmd
}
