// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token lifetimes and sizes.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
	RefreshTokenBytes = 64
	MinSigningKeyLen  = 32
)

// IssuerConfig is the process-wide token configuration. It is read once at
// startup; changing the key invalidates every outstanding access token.
type IssuerConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// CredentialID parses the subject claim.
func (c *AccessClaims) CredentialID() (int64, error) {
	if c.Subject == "" {
		return 0, oops.Code(CodeInvalidToken).Public(MsgInvalidToken).Errorf("token has no subject")
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, oops.Code(CodeInvalidToken).Public(MsgInvalidToken).
			With("subject", c.Subject).
			Errorf("token subject is not a credential id")
	}
	return id, nil
}

// TokenIssuer mints signed access tokens and opaque refresh tokens.
type TokenIssuer struct {
	key        []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      func() time.Time
	parser     *jwt.Parser
}

// NewTokenIssuer validates cfg and returns an issuer. A nil clock means
// time.Now.
func NewTokenIssuer(cfg IssuerConfig, clock func() time.Time) (*TokenIssuer, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, oops.Code("CONFIG_INVALID").Errorf("token signing key is required")
	}
	if len(cfg.SigningKey) < MinSigningKeyLen {
		return nil, oops.Code("CONFIG_INVALID").
			With("min_length", MinSigningKeyLen).
			Errorf("token signing key is too short")
	}
	if cfg.Issuer == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("token issuer is required")
	}
	if cfg.Audience == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("token audience is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if clock == nil {
		clock = time.Now
	}

	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)

	return &TokenIssuer{
		key:        key,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		clock:      clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(clock),
		),
	}, nil
}

// IssueAccessToken signs an access token for cred.
func (i *TokenIssuer) IssueAccessToken(cred *Credential) (string, time.Time, error) {
	now := i.clock()
	expires := jwt.NewNumericDate(now.Add(i.accessTTL))

	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   strconv.FormatInt(cred.ID, 10),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: expires,
		},
		Name: cred.FirstName,
		Role: cred.DisplayRole(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, oops.Code("AUTH_TOKEN_SIGN_FAILED").
			With("credential_id", cred.ID).
			Wrap(err)
	}
	return signed, expires.Time, nil
}

// IssueRefreshToken returns a fresh base64 refresh token and its expiry.
// The caller persists it bound to a credential.
func (i *TokenIssuer) IssueRefreshToken() (string, time.Time, error) {
	buf := make([]byte, RefreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, oops.Code("AUTH_TOKEN_GENERATE_FAILED").
			With("requested_bytes", RefreshTokenBytes).
			Wrap(err)
	}
	return base64.StdEncoding.EncodeToString(buf), i.clock().Add(i.refreshTTL), nil
}

// ParseAccessToken verifies signature, algorithm, issuer, audience and
// expiry, and returns the claims.
func (i *TokenIssuer) ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parsed, err := i.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	})
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).Public(MsgInvalidToken).Wrap(err)
	}
	if !parsed.Valid {
		return nil, errInvalidToken("token not valid")
	}
	return claims, nil
}
