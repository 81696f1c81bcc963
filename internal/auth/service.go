// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ServiceConfig holds the collaborators of a Service. Recorder, Logger and
// Clock are optional.
type ServiceConfig struct {
	Credentials CredentialRepository
	Tokens      TokenRepository
	Directory   Directory
	Notifier    Notifier
	Transactor  Transactor
	Hasher      PasswordHasher
	Issuer      *TokenIssuer
	Recorder    Recorder
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Service implements login, refresh, logout, registration and account
// operations on top of the stores. It holds no per-session state.
type Service struct {
	credentials CredentialRepository
	tokens      TokenRepository
	directory   Directory
	notifier    Notifier
	tx          Transactor
	hasher      PasswordHasher
	issuer      *TokenIssuer
	recorder    Recorder
	logger      *slog.Logger
	clock       func() time.Time
}

// NewService creates a Service, failing if a required collaborator is nil.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Credentials == nil:
		return nil, oops.Code("AUTH_SERVICE_CONFIG").Errorf("credential repository is required")
	case cfg.Tokens == nil:
		return nil, oops.Code("AUTH_SERVICE_CONFIG").Errorf("token repository is required")
	case cfg.Directory == nil:
		return nil, oops.Code("AUTH_SERVICE_CONFIG").Errorf("directory is required")
	case cfg.Notifier == nil:
		return nil, oops.Code("AUTH_SERVICE_CONFIG").Errorf("notifier is required")
	case cfg.Transactor == nil:
		return nil, oops.Code("AUTH_SERVICE_CONFIG").Errorf("transactor is required")
	case cfg.Hasher == nil:
		return nil, oops.Code("AUTH_SERVICE_CONFIG").Errorf("password hasher is required")
	case cfg.Issuer == nil:
		return nil, oops.Code("AUTH_SERVICE_CONFIG").Errorf("token issuer is required")
	}

	s := &Service{
		credentials: cfg.Credentials,
		tokens:      cfg.Tokens,
		directory:   cfg.Directory,
		notifier:    cfg.Notifier,
		tx:          cfg.Transactor,
		hasher:      cfg.Hasher,
		issuer:      cfg.Issuer,
		recorder:    cfg.Recorder,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s, nil
}

// Login verifies email and password and issues a token pair.
// An unknown email, a wrong password and a deleted account all produce the
// same AUTH_INVALID_CREDENTIALS error, and an unknown email still pays for a
// hash verification so response times do not reveal which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	cred, lookupErr := s.credentials.GetByEmail(ctx, NormalizeEmail(email))

	var hash, salt []byte
	exists := false
	switch {
	case lookupErr == nil:
		hash, salt = cred.PasswordHash, cred.PasswordSalt
		exists = true
	case errors.Is(lookupErr, ErrNotFound):
		hash, salt = dummyHash, dummySalt
	default:
		s.recorder.RecordLogin(OutcomeError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get credential by email").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, hash, salt)
	if verifyErr != nil {
		if !exists {
			s.recorder.RecordLogin(OutcomeInvalidCredentials)
			return nil, errInvalidCredentials()
		}
		s.recorder.RecordLogin(OutcomeError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("credential_id", cred.ID).
			Wrap(verifyErr)
	}

	// Deleted is checked after verification to keep timing uniform.
	if !exists || !valid || EnsureActive("credential", cred.ID, cred.Lifecycle) != nil {
		s.recorder.RecordLogin(OutcomeInvalidCredentials)
		return nil, errInvalidCredentials()
	}

	pair, err := s.issuePair(ctx, cred)
	if err != nil {
		s.recorder.RecordLogin(OutcomeError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token pair").
			With("credential_id", cred.ID).
			Wrap(err)
	}

	s.recorder.RecordLogin(OutcomeSuccess)
	s.logger.InfoContext(ctx, "login succeeded", "credential_id", cred.ID)
	return pair, nil
}

// issuePair mints and persists a refresh token and an access token linked
// to it, in one transaction.
func (s *Service) issuePair(ctx context.Context, cred *Credential) (*TokenPair, error) {
	access, accessExp, err := s.issuer.IssueAccessToken(cred)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.issuer.IssueRefreshToken()
	if err != nil {
		return nil, err
	}

	now := s.clock()
	rt, err := NewRefreshToken(cred.ID, HashToken(refresh), refreshExp, now)
	if err != nil {
		return nil, err
	}
	at, err := NewAccessToken(cred.ID, HashToken(access), accessExp, &rt.ID, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokens.CreateRefreshToken(ctx, rt); err != nil {
			return err
		}
		return s.tokens.CreateAccessToken(ctx, at)
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token.
// The refresh token is consumed, not rotated: the response carries the same
// refresh string and expiry, and any later exchange of it fails with
// AUTH_TOKEN_ALREADY_USED. An expired token is deleted on the attempt.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		s.recorder.RecordRefresh(OutcomeInvalidToken)
		return nil, errInvalidToken("empty refresh token")
	}

	rt, err := s.tokens.GetRefreshTokenByHash(ctx, HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.recorder.RecordRefresh(OutcomeInvalidToken)
			return nil, errInvalidToken("unknown refresh token")
		}
		s.recorder.RecordRefresh(OutcomeError)
		return nil, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get refresh token").
			Wrap(err)
	}

	now := s.clock()
	if state := rt.State(now); !state.Exchangeable() {
		return nil, s.rejectRefresh(ctx, rt, state)
	}

	cred, err := s.credentials.GetByID(ctx, rt.CredentialID)
	if err == nil {
		err = EnsureActive("credential", cred.ID, cred.Lifecycle)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.recorder.RecordRefresh(OutcomeUserMissing)
			return nil, failure(CodeUserNoLongerExists, MsgUserNoLongerExists).
				With("credential_id", rt.CredentialID).
				Errorf("refresh token owner no longer exists")
		}
		s.recorder.RecordRefresh(OutcomeError)
		return nil, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get credential").
			With("credential_id", rt.CredentialID).
			Wrap(err)
	}

	access, accessExp, err := s.issuer.IssueAccessToken(cred)
	if err != nil {
		s.recorder.RecordRefresh(OutcomeError)
		return nil, oops.Code("AUTH_REFRESH_FAILED").With("operation", "issue access token").Wrap(err)
	}
	at, err := NewAccessToken(cred.ID, HashToken(access), accessExp, &rt.ID, now)
	if err != nil {
		s.recorder.RecordRefresh(OutcomeError)
		return nil, oops.Code("AUTH_REFRESH_FAILED").With("operation", "build access token").Wrap(err)
	}

	lostRace := false
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		marked, err := s.tokens.MarkRefreshTokenUsed(ctx, rt.ID, now)
		if err != nil {
			return err
		}
		if !marked {
			lostRace = true
			return nil
		}
		return s.tokens.CreateAccessToken(ctx, at)
	})
	if err != nil {
		s.recorder.RecordRefresh(OutcomeError)
		return nil, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "consume refresh token").
			With("token_id", rt.ID.String()).
			Wrap(err)
	}
	if lostRace {
		s.recorder.RecordRefresh(OutcomeAlreadyUsed)
		s.logger.WarnContext(ctx, "concurrent refresh token exchange rejected",
			"token_id", rt.ID.String(),
			"credential_id", rt.CredentialID)
		return nil, errTokenAlreadyUsed(rt.ID)
	}

	s.recorder.RecordRefresh(OutcomeSuccess)
	return &TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: rt.ExpiresAt,
	}, nil
}

func errTokenAlreadyUsed(id ulid.ULID) error {
	return failure(CodeTokenAlreadyUsed, MsgTokenAlreadyUsed).
		With("token_id", id.String()).
		Errorf("refresh token already used")
}

// rejectRefresh handles an exchange attempt on a token that is no longer
// issued. An expired token is deleted on the attempt.
func (s *Service) rejectRefresh(ctx context.Context, rt *RefreshToken, state RefreshState) error {
	switch state {
	case RefreshExpired:
		if err := s.tokens.DeleteRefreshToken(ctx, rt.ID); err != nil && !errors.Is(err, ErrNotFound) {
			s.recorder.RecordRefresh(OutcomeError)
			return oops.Code("AUTH_REFRESH_FAILED").
				With("operation", "delete expired refresh token").
				With("token_id", rt.ID.String()).
				Wrap(err)
		}
		s.recorder.RecordRefresh(OutcomeExpired)
		return failure(CodeTokenExpired, MsgTokenExpired).
			With("token_id", rt.ID.String()).
			Errorf("refresh token expired")
	case RefreshUsed:
		s.recorder.RecordRefresh(OutcomeAlreadyUsed)
		s.logger.WarnContext(ctx, "refresh token replayed",
			"token_id", rt.ID.String(),
			"credential_id", rt.CredentialID)
		return errTokenAlreadyUsed(rt.ID)
	case RefreshRevoked:
		s.recorder.RecordRefresh(OutcomeRevoked)
		return failure(CodeTokenRevoked, MsgTokenRevoked).
			With("token_id", rt.ID.String()).
			Errorf("refresh token revoked")
	default:
		s.recorder.RecordRefresh(OutcomeInvalidToken)
		return errInvalidToken("refresh token in state " + state.String())
	}
}

// Logout revokes an access token and the refresh token it was minted with.
// Repeating it on a revoked pair succeeds again.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return errInvalidToken("empty access token")
	}

	at, err := s.tokens.GetAccessTokenByHash(ctx, HashToken(accessToken))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errInvalidToken("unknown access token")
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "get access token").
			Wrap(err)
	}

	if at.RefreshTokenID == nil {
		return errRefreshTokenNotFound(at.ID)
	}
	rt, err := s.tokens.GetRefreshTokenByID(ctx, *at.RefreshTokenID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errRefreshTokenNotFound(at.ID)
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "get refresh token").
			With("token_id", at.RefreshTokenID.String()).
			Wrap(err)
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokens.RevokeAccessToken(ctx, at.ID); err != nil {
			return err
		}
		return s.tokens.RevokeRefreshToken(ctx, rt.ID)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errInvalidToken("token removed during logout")
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "revoke tokens").
			With("credential_id", at.CredentialID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "logout succeeded", "credential_id", at.CredentialID)
	return nil
}

func errRefreshTokenNotFound(accessID ulid.ULID) error {
	return failure(CodeRefreshTokenNotFound, MsgRefreshTokenNotFound).
		With("access_token_id", accessID.String()).
		Errorf("paired refresh token not found")
}

// Authenticate verifies a bearer access token and confirms it is still on
// record and not revoked.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*AccessClaims, error) {
	claims, err := s.issuer.ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	at, err := s.tokens.GetAccessTokenByHash(ctx, HashToken(accessToken))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errInvalidToken("access token not on record")
		}
		return nil, oops.Code("AUTH_AUTHENTICATE_FAILED").
			With("operation", "get access token").
			Wrap(err)
	}
	if at.Revoked {
		return nil, errInvalidToken("access token revoked")
	}
	if at.IsExpiredAt(s.clock()) {
		return nil, errInvalidToken("access token expired")
	}
	return claims, nil
}
