// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inventoryapp/inventoryauth/internal/auth"
	"github.com/inventoryapp/inventoryauth/internal/auth/postgres"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// DefaultRoleName is the role seeded for ordinary users.
const DefaultRoleName = "Employee"

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout       time.Duration
	supplier      string
	adminEmail    string
	adminPassword string
	firstName     string
	lastName      string
}

func newSeedCmd(deps *Deps) *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed roles, a supplier and the first admin",
		Long: `Creates the Admin and Employee roles, a supplier and an approved admin
credential. This command is idempotent - it will not create duplicates if run
multiple times.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, cfg, deps)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().StringVar(&cfg.supplier, "supplier", "Head Office", "name of the supplier the admin belongs to")
	cmd.Flags().StringVar(&cfg.adminEmail, "admin-email", "", "admin login email (required)")
	cmd.Flags().StringVar(&cfg.adminPassword, "admin-password", "", "admin password (required)")
	cmd.Flags().StringVar(&cfg.firstName, "admin-first-name", "System", "admin first name")
	cmd.Flags().StringVar(&cfg.lastName, "admin-last-name", "Administrator", "admin last name")

	return cmd
}

func runSeed(cmd *cobra.Command, cfg *seedConfig, deps *Deps) error {
	appCfg, err := loadDatabaseConfig(cmd)
	if err != nil {
		return err
	}

	candidate := auth.Candidate{
		FirstName:     cfg.firstName,
		LastName:      cfg.lastName,
		Email:         auth.NormalizeEmail(cfg.adminEmail),
		Password:      cfg.adminPassword,
		PasswordMatch: cfg.adminPassword,
		// Real ids are assigned inside the transaction.
		RoleID:     1,
		SupplierID: 1,
	}
	if err := auth.Validate(candidate); err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := deps.ConnectDB(ctx, appCfg.Database.URL, appCfg.Database.ConnectTimeout)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	dir := postgres.NewDirectoryRepository(db)
	creds := postgres.NewCredentialRepository(db)
	created := false

	err = postgres.NewTransactor(db).InTransaction(ctx, func(ctx context.Context) error {
		adminRole, err := dir.EnsureRole(ctx, auth.AdminRoleName)
		if err != nil {
			return err
		}
		if _, err := dir.EnsureRole(ctx, DefaultRoleName); err != nil {
			return err
		}
		supplierID, err := dir.EnsureSupplier(ctx, cfg.supplier)
		if err != nil {
			return err
		}

		taken, err := creds.EmailInUse(ctx, candidate.Email)
		if err != nil {
			return err
		}
		if taken {
			return nil
		}

		hash, salt, err := deps.Hasher.Hash(candidate.Password)
		if err != nil {
			return oops.Code("SEED_FAILED").With("operation", "hash password").Wrap(err)
		}
		now := time.Now().UTC()
		admin := &auth.Credential{
			FirstName:    candidate.FirstName,
			LastName:     candidate.LastName,
			Email:        candidate.Email,
			PasswordHash: hash,
			PasswordSalt: salt,
			RoleID:       adminRole,
			SupplierID:   supplierID,
			Approved:     true,
			Lifecycle:    auth.Active(),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := creds.Create(ctx, admin); err != nil {
			return err
		}
		created = true
		slog.Info("created admin credential", "credential_id", admin.ID, "supplier_id", supplierID)
		return nil
	})
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "seed directory").Wrap(err)
	}

	if created {
		cmd.Println("Created admin " + candidate.Email)
	} else {
		cmd.Println("Admin " + candidate.Email + " already exists, skipping")
	}
	cmd.Println("Seeding complete!")
	return nil
}
