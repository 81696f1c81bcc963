// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// CredentialRepository manages credential persistence.
type CredentialRepository interface {
	// GetByEmail looks up a credential by email, ignoring case. When both a
	// live and a deleted credential share the address, the live one wins.
	GetByEmail(ctx context.Context, email string) (*Credential, error)

	// GetByID retrieves a credential with its role name resolved.
	GetByID(ctx context.Context, id int64) (*Credential, error)

	// EmailInUse reports whether a non-deleted credential holds email.
	EmailInUse(ctx context.Context, email string) (bool, error)

	// Create stores a new credential and sets its ID. Returns an error
	// wrapping ErrDuplicateEmail on a uniqueness violation.
	Create(ctx context.Context, cred *Credential) error

	// UpdatePassword replaces the stored hash and salt.
	UpdatePassword(ctx context.Context, id int64, hash, salt []byte, at time.Time) error
}

// TokenRepository manages access and refresh token persistence.
type TokenRepository interface {
	CreateAccessToken(ctx context.Context, token *AccessToken) error
	GetAccessTokenByHash(ctx context.Context, tokenHash string) (*AccessToken, error)
	RevokeAccessToken(ctx context.Context, id ulid.ULID) error

	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	GetRefreshTokenByID(ctx context.Context, id ulid.ULID) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id ulid.ULID) error
	DeleteRefreshToken(ctx context.Context, id ulid.ULID) error

	// MarkRefreshTokenUsed flips used to true only if the token is still
	// unused, unrevoked and unexpired at now. It reports whether a row
	// changed; false means another caller got there first.
	MarkRefreshTokenUsed(ctx context.Context, id ulid.ULID, now time.Time) (bool, error)
}

// TokenSweeper deletes expired tokens in bulk.
type TokenSweeper interface {
	// DeleteExpiredAccessTokens removes access tokens with expiry before now.
	DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error)

	// DeleteExpiredRefreshTokens removes refresh tokens with expiry before now.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

// Directory resolves the roles and suppliers a credential refers to.
type Directory interface {
	GetRole(ctx context.Context, id int64) (*Role, error)
	GetSupplier(ctx context.Context, id int64) (*Supplier, error)

	// AdminIDs lists live credentials holding the admin role.
	AdminIDs(ctx context.Context) ([]int64, error)
}

// Transactor runs fn in a single database transaction. Repository calls
// made with the ctx passed to fn join that transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
