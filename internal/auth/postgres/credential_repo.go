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

// Deleted roles do not resolve, so their holders show the default label.
const selectCredential = `
	SELECT u.id, u.first_name, u.last_name, u.email, u.password_hash, u.password_salt,
	       u.role_id, COALESCE(r.name, ''), u.supplier_id, u.approved,
	       u.deleted, u.deleted_at, u.created_at, u.updated_at
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id AND NOT r.deleted`

// CredentialRepository implements auth.CredentialRepository.
type CredentialRepository struct {
	db DB
}

// NewCredentialRepository creates a CredentialRepository.
func NewCredentialRepository(db DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// GetByEmail implements auth.CredentialRepository.
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	row := conn(ctx, r.db).QueryRow(ctx, selectCredential+`
		WHERE LOWER(u.email) = LOWER($1)
		ORDER BY u.deleted ASC, u.id DESC
		LIMIT 1`, email)

	cred, err := scanCredential(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_GET_BY_EMAIL_FAILED").
			With("operation", "get credential by email").
			Wrap(err)
	}
	return cred, nil
}

// GetByID implements auth.CredentialRepository.
func (r *CredentialRepository) GetByID(ctx context.Context, id int64) (*auth.Credential, error) {
	row := conn(ctx, r.db).QueryRow(ctx, selectCredential+`
		WHERE u.id = $1`, id)

	cred, err := scanCredential(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_GET_FAILED").
			With("operation", "get credential by id").
			With("id", id).
			Wrap(err)
	}
	return cred, nil
}

// EmailInUse implements auth.CredentialRepository.
func (r *CredentialRepository) EmailInUse(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND NOT deleted)
	`, email).Scan(&exists)
	if err != nil {
		return false, oops.Code("CREDENTIAL_EMAIL_CHECK_FAILED").
			With("operation", "check email in use").
			Wrap(err)
	}
	return exists, nil
}

// Create implements auth.CredentialRepository.
func (r *CredentialRepository) Create(ctx context.Context, cred *auth.Credential) error {
	deleted, deletedAt := cred.Lifecycle.Columns()
	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, password_salt,
		                   role_id, supplier_id, approved, deleted, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`,
		cred.FirstName,
		cred.LastName,
		cred.Email,
		cred.PasswordHash,
		cred.PasswordSalt,
		cred.RoleID,
		cred.SupplierID,
		cred.Approved,
		deleted,
		deletedAt,
		cred.CreatedAt,
		cred.UpdatedAt,
	).Scan(&cred.ID)
	if isUniqueViolation(err) {
		return oops.Code("CREDENTIAL_DUPLICATE_EMAIL").Wrap(auth.ErrDuplicateEmail)
	}
	if err != nil {
		return oops.Code("CREDENTIAL_CREATE_FAILED").
			With("operation", "insert credential").
			With("role_id", cred.RoleID).
			With("supplier_id", cred.SupplierID).
			Wrap(err)
	}
	return nil
}

// UpdatePassword implements auth.CredentialRepository.
func (r *CredentialRepository) UpdatePassword(ctx context.Context, id int64, hash, salt []byte, at time.Time) error {
	result, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE users SET password_hash = $2, password_salt = $3, updated_at = $4
		WHERE id = $1 AND NOT deleted
	`, id, hash, salt, at)
	if err != nil {
		return oops.Code("CREDENTIAL_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("CREDENTIAL_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanCredential(row pgx.Row) (*auth.Credential, error) {
	var (
		c         auth.Credential
		deleted   bool
		deletedAt *time.Time
	)
	if err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.PasswordHash,
		&c.PasswordSalt,
		&c.RoleID,
		&c.RoleName,
		&c.SupplierID,
		&c.Approved,
		&deleted,
		&deletedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	c.Lifecycle = auth.LifecycleFromColumns(deleted, deletedAt)
	return &c, nil
}
