// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// AccessToken is the stored record of an issued bearer token. Only the
// SHA-256 of the bearer string is kept.
type AccessToken struct {
	ID             ulid.ULID
	TokenHash      string
	CredentialID   int64
	ExpiresAt      time.Time
	Revoked        bool
	RefreshTokenID *ulid.ULID // refresh token this access token was minted with
	CreatedAt      time.Time
}

// IsExpiredAt reports whether the token is no longer valid at t.
func (t *AccessToken) IsExpiredAt(at time.Time) bool {
	return !at.Before(t.ExpiresAt)
}

// NewAccessToken creates a validated AccessToken record.
func NewAccessToken(credentialID int64, tokenHash string, expiresAt time.Time, refreshID *ulid.ULID, now time.Time) (*AccessToken, error) {
	if credentialID <= 0 {
		return nil, oops.Code("TOKEN_INVALID_OWNER").Errorf("credential ID must be positive")
	}
	if tokenHash == "" {
		return nil, oops.Code("TOKEN_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code("TOKEN_INVALID_EXPIRY").Errorf("expiry must be in the future")
	}
	return &AccessToken{
		ID:             ulid.Make(),
		TokenHash:      tokenHash,
		CredentialID:   credentialID,
		ExpiresAt:      expiresAt,
		RefreshTokenID: refreshID,
		CreatedAt:      now,
	}, nil
}

// RefreshState is the lifecycle state of a refresh token, derived from its
// stored flags and expiry.
type RefreshState int

// Refresh token states. Used, Expired and Revoked are terminal.
const (
	RefreshIssued RefreshState = iota
	RefreshUsed
	RefreshExpired
	RefreshRevoked
)

func (s RefreshState) String() string {
	switch s {
	case RefreshIssued:
		return "issued"
	case RefreshUsed:
		return "used"
	case RefreshExpired:
		return "expired"
	case RefreshRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// Exchangeable reports whether a token in this state may mint an access token.
func (s RefreshState) Exchangeable() bool {
	return s == RefreshIssued
}

// RefreshToken is the stored record of an opaque refresh token.
type RefreshToken struct {
	ID           ulid.ULID
	TokenHash    string
	CredentialID int64
	ExpiresAt    time.Time
	Used         bool
	Revoked      bool
	CreatedAt    time.Time
}

// NewRefreshToken creates a validated RefreshToken record.
func NewRefreshToken(credentialID int64, tokenHash string, expiresAt, now time.Time) (*RefreshToken, error) {
	if credentialID <= 0 {
		return nil, oops.Code("TOKEN_INVALID_OWNER").Errorf("credential ID must be positive")
	}
	if tokenHash == "" {
		return nil, oops.Code("TOKEN_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code("TOKEN_INVALID_EXPIRY").Errorf("expiry must be in the future")
	}
	return &RefreshToken{
		ID:           ulid.Make(),
		TokenHash:    tokenHash,
		CredentialID: credentialID,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}, nil
}

// State materializes the token's state at now. Expiry wins over the stored
// flags, then used, then revoked.
func (t *RefreshToken) State(now time.Time) RefreshState {
	switch {
	case !now.Before(t.ExpiresAt):
		return RefreshExpired
	case t.Used:
		return RefreshUsed
	case t.Revoked:
		return RefreshRevoked
	default:
		return RefreshIssued
	}
}

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// HashToken computes the SHA-256 hex digest used to store and look up
// both access and refresh tokens.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
