// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inventoryapp/inventoryauth/internal/auth"
)

// TokenRepository implements auth.TokenRepository and auth.TokenSweeper.
type TokenRepository struct {
	db DB
}

// NewTokenRepository creates a TokenRepository.
func NewTokenRepository(db DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateAccessToken stores an access token record.
func (r *TokenRepository) CreateAccessToken(ctx context.Context, t *auth.AccessToken) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO access_tokens (id, token_hash, user_id, refresh_token_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		t.ID.String(),
		t.TokenHash,
		t.CredentialID,
		ulidToStringPtr(t.RefreshTokenID),
		t.ExpiresAt,
		t.Revoked,
		t.CreatedAt,
	)
	if err != nil {
		return oops.Code("ACCESS_TOKEN_CREATE_FAILED").
			With("operation", "insert access token").
			With("credential_id", t.CredentialID).
			Wrap(err)
	}
	return nil
}

// GetAccessTokenByHash looks up an access token by the digest of its bearer string.
func (r *TokenRepository) GetAccessTokenByHash(ctx context.Context, tokenHash string) (*auth.AccessToken, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, token_hash, user_id, refresh_token_id, expires_at, revoked, created_at
		FROM access_tokens
		WHERE token_hash = $1
	`, tokenHash)

	t, err := scanAccessToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCESS_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCESS_TOKEN_GET_FAILED").
			With("operation", "get access token by hash").
			Wrap(err)
	}
	return t, nil
}

// RevokeAccessToken marks an access token revoked. Revoking twice succeeds.
func (r *TokenRepository) RevokeAccessToken(ctx context.Context, id ulid.ULID) error {
	return r.revoke(ctx, "access_tokens", "ACCESS_TOKEN", id)
}

// CreateRefreshToken stores a refresh token record.
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, t *auth.RefreshToken) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, used, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		t.ID.String(),
		t.TokenHash,
		t.CredentialID,
		t.ExpiresAt,
		t.Used,
		t.Revoked,
		t.CreatedAt,
	)
	if err != nil {
		return oops.Code("REFRESH_TOKEN_CREATE_FAILED").
			With("operation", "insert refresh token").
			With("credential_id", t.CredentialID).
			Wrap(err)
	}
	return nil
}

// GetRefreshTokenByHash looks up a refresh token by the digest of its string.
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, token_hash, user_id, expires_at, used, revoked, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash)

	t, err := scanRefreshToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("REFRESH_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("REFRESH_TOKEN_GET_FAILED").
			With("operation", "get refresh token by hash").
			Wrap(err)
	}
	return t, nil
}

// GetRefreshTokenByID retrieves a refresh token by ID.
func (r *TokenRepository) GetRefreshTokenByID(ctx context.Context, id ulid.ULID) (*auth.RefreshToken, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, token_hash, user_id, expires_at, used, revoked, created_at
		FROM refresh_tokens
		WHERE id = $1
	`, id.String())

	t, err := scanRefreshToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("REFRESH_TOKEN_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("REFRESH_TOKEN_GET_FAILED").
			With("operation", "get refresh token by id").
			With("id", id.String()).
			Wrap(err)
	}
	return t, nil
}

// RevokeRefreshToken marks a refresh token revoked. Revoking twice succeeds.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, id ulid.ULID) error {
	return r.revoke(ctx, "refresh_tokens", "REFRESH_TOKEN", id)
}

// DeleteRefreshToken removes a refresh token. Access tokens minted with it
// keep working; their link is cleared by the foreign key.
func (r *TokenRepository) DeleteRefreshToken(ctx context.Context, id ulid.ULID) error {
	result, err := conn(ctx, r.db).Exec(ctx, `
		DELETE FROM refresh_tokens WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("REFRESH_TOKEN_DELETE_FAILED").
			With("operation", "delete refresh token").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("REFRESH_TOKEN_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// MarkRefreshTokenUsed implements auth.TokenRepository. The guard lives in
// the WHERE clause so concurrent exchanges serialize on the row lock and
// only the first sees a changed row.
func (r *TokenRepository) MarkRefreshTokenUsed(ctx context.Context, id ulid.ULID, now time.Time) (bool, error) {
	result, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE refresh_tokens SET used = TRUE
		WHERE id = $1 AND NOT used AND NOT revoked AND expires_at > $2
	`, id.String(), now)
	if err != nil {
		return false, oops.Code("REFRESH_TOKEN_MARK_USED_FAILED").
			With("operation", "mark refresh token used").
			With("id", id.String()).
			Wrap(err)
	}
	return result.RowsAffected() == 1, nil
}

// DeleteExpiredAccessTokens implements auth.TokenSweeper.
func (r *TokenRepository) DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := conn(ctx, r.db).Exec(ctx, `
		DELETE FROM access_tokens WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, oops.Code("ACCESS_TOKEN_SWEEP_FAILED").
			With("operation", "delete expired access tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpiredRefreshTokens implements auth.TokenSweeper.
func (r *TokenRepository) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := conn(ctx, r.db).Exec(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, oops.Code("REFRESH_TOKEN_SWEEP_FAILED").
			With("operation", "delete expired refresh tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// revoke flips the revoked flag on one row of table. prefix names the
// token kind in error codes.
func (r *TokenRepository) revoke(ctx context.Context, table, prefix string, id ulid.ULID) error {
	// table is always a literal from this file, never caller input.
	result, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE `+table+` SET revoked = TRUE WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code(prefix+"_REVOKE_FAILED").
			With("operation", "revoke token").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code(prefix+"_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanAccessToken(row pgx.Row) (*auth.AccessToken, error) {
	var (
		t         auth.AccessToken
		id        string
		refreshID *string
	)
	if err := row.Scan(&id, &t.TokenHash, &t.CredentialID, &refreshID, &t.ExpiresAt, &t.Revoked, &t.CreatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}

	var err error
	if t.ID, err = parseULID(id, "access_token_id"); err != nil {
		return nil, err
	}
	if t.RefreshTokenID, err = parseOptionalULID(refreshID, "refresh_token_id"); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanRefreshToken(row pgx.Row) (*auth.RefreshToken, error) {
	var (
		t  auth.RefreshToken
		id string
	)
	if err := row.Scan(&id, &t.TokenHash, &t.CredentialID, &t.ExpiresAt, &t.Used, &t.Revoked, &t.CreatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}

	var err error
	if t.ID, err = parseULID(id, "refresh_token_id"); err != nil {
		return nil, err
	}
	return &t, nil
}
