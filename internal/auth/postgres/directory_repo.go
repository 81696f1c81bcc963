// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/inventoryapp/inventoryauth/internal/auth"
)

// DirectoryRepository implements auth.Directory over the roles, suppliers
// and users tables.
type DirectoryRepository struct {
	db DB
}

// NewDirectoryRepository creates a DirectoryRepository.
func NewDirectoryRepository(db DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// GetRole returns the role with id, deleted or not.
func (r *DirectoryRepository) GetRole(ctx context.Context, id int64) (*auth.Role, error) {
	var (
		role      auth.Role
		deleted   bool
		deletedAt *time.Time
	)
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, name, deleted, deleted_at FROM roles WHERE id = $1
	`, id).Scan(&role.ID, &role.Name, &deleted, &deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ROLE_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ROLE_GET_FAILED").With("operation", "get role").With("id", id).Wrap(err)
	}
	role.Lifecycle = auth.LifecycleFromColumns(deleted, deletedAt)
	return &role, nil
}

// GetSupplier returns the supplier with id, deleted or not.
func (r *DirectoryRepository) GetSupplier(ctx context.Context, id int64) (*auth.Supplier, error) {
	var (
		s         auth.Supplier
		deleted   bool
		deletedAt *time.Time
	)
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, name, deleted, deleted_at FROM suppliers WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &deleted, &deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SUPPLIER_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SUPPLIER_GET_FAILED").With("operation", "get supplier").With("id", id).Wrap(err)
	}
	s.Lifecycle = auth.LifecycleFromColumns(deleted, deletedAt)
	return &s, nil
}

// AdminIDs implements auth.Directory.
func (r *DirectoryRepository) AdminIDs(ctx context.Context) ([]int64, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT u.id
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE r.name = $1 AND NOT r.deleted AND NOT u.deleted
		ORDER BY u.id
	`, auth.AdminRoleName)
	if err != nil {
		return nil, oops.Code("ADMIN_LIST_FAILED").With("operation", "list admins").Wrap(err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, oops.Code("ADMIN_LIST_FAILED").With("operation", "scan admin row").Wrap(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ADMIN_LIST_FAILED").With("operation", "iterate admin rows").Wrap(err)
	}
	return ids, nil
}

// EnsureRole returns the id of the live role called name, creating it if
// absent.
func (r *DirectoryRepository) EnsureRole(ctx context.Context, name string) (int64, error) {
	return r.ensureNamed(ctx, "roles", "ROLE", name)
}

// EnsureSupplier returns the id of the live supplier called name, creating
// it if absent.
func (r *DirectoryRepository) EnsureSupplier(ctx context.Context, name string) (int64, error) {
	return r.ensureNamed(ctx, "suppliers", "SUPPLIER", name)
}

// ensureNamed leans on the partial unique index over live names: a
// concurrent insert of the same name makes ours a no-op, and the follow-up
// select finds the winner.
func (r *DirectoryRepository) ensureNamed(ctx context.Context, table, prefix, name string) (int64, error) {
	q := conn(ctx, r.db)
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO `+table+` (name) VALUES ($1)
		ON CONFLICT (name) WHERE NOT deleted DO NOTHING
		RETURNING id
	`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.Code(prefix+"_ENSURE_FAILED").With("operation", "insert "+table).With("name", name).Wrap(err)
	}

	err = q.QueryRow(ctx, `SELECT id FROM `+table+` WHERE name = $1 AND NOT deleted`, name).Scan(&id)
	if err != nil {
		return 0, oops.Code(prefix+"_ENSURE_FAILED").With("operation", "select "+table).With("name", name).Wrap(err)
	}
	return id, nil
}
