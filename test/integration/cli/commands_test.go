// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

//go:build integration

package cli_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

const (
	adminEmail    = "admin@inventory.test"
	adminPassword = "Adm1n-secret"
)

var _ = Describe("Database commands", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupDatabase(ctx, env.pool)
	})

	Describe("migrate", func() {
		It("applies every migration and reports none pending", func() {
			output, err := inventoryauth(ctx, "migrate", "up")
			Expect(err).NotTo(HaveOccurred(), "migrate failed: %s", output)

			output, err = inventoryauth(ctx, "migrate", "status")
			Expect(err).NotTo(HaveOccurred(), "status failed: %s", output)
			Expect(output).To(ContainSubstring("current: 3"))
			Expect(output).To(ContainSubstring("pending: none"))

			var exists bool
			err = env.pool.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'refresh_tokens')",
			).Scan(&exists)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})

		It("rolls back to an empty schema", func() {
			output, err := inventoryauth(ctx, "migrate")
			Expect(err).NotTo(HaveOccurred(), "migrate failed: %s", output)

			output, err = inventoryauth(ctx, "migrate", "down")
			Expect(err).NotTo(HaveOccurred(), "down failed: %s", output)

			var exists bool
			err = env.pool.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'users')",
			).Scan(&exists)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})
	})

	Describe("seed", func() {
		seed := func() (string, error) {
			return inventoryauth(ctx, "seed",
				"--admin-email", adminEmail,
				"--admin-password", adminPassword,
			)
		}

		BeforeEach(func() {
			output, err := inventoryauth(ctx, "migrate")
			Expect(err).NotTo(HaveOccurred(), "migrate failed: %s", output)
		})

		It("creates the roles, the supplier and an approved admin", func() {
			output, err := seed()
			Expect(err).NotTo(HaveOccurred(), "seed failed: %s", output)
			Expect(output).To(ContainSubstring("Created admin " + adminEmail))
			Expect(output).To(ContainSubstring("Seeding complete!"))

			var role, supplier string
			var approved bool
			err = env.pool.QueryRow(ctx, `
				SELECT r.name, s.name, u.approved
				FROM users u
				JOIN roles r ON r.id = u.role_id
				JOIN suppliers s ON s.id = u.supplier_id
				WHERE u.email = $1`, adminEmail,
			).Scan(&role, &supplier, &approved)
			Expect(err).NotTo(HaveOccurred())
			Expect(role).To(Equal("Admin"))
			Expect(supplier).To(Equal("Head Office"))
			Expect(approved).To(BeTrue())

			var employee int
			err = env.pool.QueryRow(ctx, "SELECT COUNT(*) FROM roles WHERE name = 'Employee'").Scan(&employee)
			Expect(err).NotTo(HaveOccurred())
			Expect(employee).To(Equal(1))
		})

		It("is idempotent (running twice succeeds without duplicates)", func() {
			output, err := seed()
			Expect(err).NotTo(HaveOccurred(), "first seed failed: %s", output)

			output, err = seed()
			Expect(err).NotTo(HaveOccurred(), "second seed failed: %s", output)
			Expect(output).To(ContainSubstring("already exists, skipping"))

			var users, roles int
			Expect(env.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&users)).To(Succeed())
			Expect(env.pool.QueryRow(ctx, "SELECT COUNT(*) FROM roles").Scan(&roles)).To(Succeed())
			Expect(users).To(Equal(1))
			Expect(roles).To(Equal(2))
		})

		It("rejects a weak admin password without touching the database", func() {
			output, err := inventoryauth(ctx, "seed",
				"--admin-email", adminEmail,
				"--admin-password", "weak",
			)
			Expect(err).To(HaveOccurred())
			Expect(output).To(ContainSubstring("Error:"))

			var users int
			Expect(env.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&users)).To(Succeed())
			Expect(users).To(BeZero())
		})
	})

	Describe("sweep", func() {
		BeforeEach(func() {
			output, err := inventoryauth(ctx, "migrate")
			Expect(err).NotTo(HaveOccurred(), "migrate failed: %s", output)
			output, err = inventoryauth(ctx, "seed", "--admin-email", adminEmail, "--admin-password", adminPassword)
			Expect(err).NotTo(HaveOccurred(), "seed failed: %s", output)
		})

		It("deletes expired tokens and keeps live ones", func() {
			var userID int64
			Expect(env.pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", adminEmail).Scan(&userID)).To(Succeed())

			_, err := env.pool.Exec(ctx, `
				INSERT INTO access_tokens (id, user_id, token_hash, expires_at, created_at)
				VALUES
					('01J00000000000000000000001', $1, 'hash-1', now() - interval '2 hours', now() - interval '3 hours'),
					('01J00000000000000000000002', $1, 'hash-2', now() - interval '1 minute', now() - interval '1 hour'),
					('01J00000000000000000000003', $1, 'hash-3', now() + interval '1 hour', now())`, userID)
			Expect(err).NotTo(HaveOccurred())

			output, err := inventoryauth(ctx, "sweep")
			Expect(err).NotTo(HaveOccurred(), "sweep failed: %s", output)
			Expect(output).To(ContainSubstring("Deleted 2 expired access token(s)"))

			var remaining string
			Expect(env.pool.QueryRow(ctx, "SELECT id FROM access_tokens").Scan(&remaining)).To(Succeed())
			Expect(remaining).To(Equal("01J00000000000000000000003"))
		})
	})
})
