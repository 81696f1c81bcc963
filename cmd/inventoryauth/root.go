// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inventoryapp/inventoryauth/internal/config"
	"github.com/inventoryapp/inventoryauth/internal/logging"
)

const serviceName = "inventoryauth"

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command for the inventoryauth CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "inventoryauth",
		Short: "Inventory authentication service",
		Long: `inventoryauth issues and verifies the access and refresh tokens of the
inventory application, and manages credential registration and passwords
on top of PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/inventoryauth/config.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file (default: ./.env when present)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newSweepCmd(deps))
	cmd.AddCommand(newSeedCmd(deps))
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig merges every configuration source for cmd without validating.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Flags:      cmd.Flags(),
	})
}

// loadDatabaseConfig loads the configuration of commands that only talk to
// the database, which need nothing but its URL.
func loadDatabaseConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, oops.Code(config.CodeInvalid).
			Errorf("database.url is required (--database-url or %sDATABASE__URL)", config.EnvPrefix)
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.SetDefault(serviceName, version, cfg.Log.Format, level), nil
}
