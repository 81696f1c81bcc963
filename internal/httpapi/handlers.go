// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inventoryapp/inventoryauth/internal/auth"
)

// Success messages.
const (
	MsgLoginOK      = "Login successful."
	MsgRefreshOK    = "Access token updated."
	MsgLogoutOK     = "Logged out successfully."
	MsgPasswordOK   = "Password changed successfully."
	MsgRegisteredOK = "User registered."
	MsgProfileOK    = "Current user."
)

// Service is the part of *auth.Service the handlers call.
type Service interface {
	Login(ctx context.Context, email, password string) (*auth.TokenPair, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	Authenticate(ctx context.Context, accessToken string) (*auth.AccessClaims, error)
	Me(ctx context.Context, credentialID int64) (*auth.Profile, error)
	ResetPassword(ctx context.Context, credentialID int64, change auth.PasswordChange) error
	RegisterCandidate(ctx context.Context, c auth.Candidate) (*auth.Credential, error)
}

var _ Service = (*auth.Service)(nil)

type handlers struct {
	svc    Service
	logger *slog.Logger
}

func (h *handlers) login(c *gin.Context) {
	var in auth.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	in.Email = auth.NormalizeEmail(in.Email)
	if err := auth.Validate(in); err != nil {
		respondError(c, h.logger, err)
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, MsgLoginOK, pair)
}

func (h *handlers) refresh(c *gin.Context) {
	var in auth.RefreshInput
	if !bindJSON(c, &in) {
		return
	}
	if err := auth.Validate(in); err != nil {
		respondError(c, h.logger, err)
		return
	}

	pair, err := h.svc.RefreshAccessToken(c.Request.Context(), in.Token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, MsgRefreshOK, pair)
}

// logout looks the bearer string up as is; its signature is not checked.
func (h *handlers) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, MsgLogoutOK, nil)
}

func (h *handlers) me(c *gin.Context) {
	profile, err := h.svc.Me(c.Request.Context(), c.GetInt64(ctxCredentialID))
	if err != nil {
		respondErrorStatus(c, h.logger, err, http.StatusUnauthorized)
		return
	}
	respond(c, MsgProfileOK, profile)
}

func (h *handlers) resetPassword(c *gin.Context) {
	var in auth.PasswordChange
	if !bindJSON(c, &in) {
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), c.GetInt64(ctxCredentialID), in); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, MsgPasswordOK, nil)
}

func (h *handlers) register(c *gin.Context) {
	var in auth.Candidate
	if !bindJSON(c, &in) {
		return
	}

	if _, err := h.svc.RegisterCandidate(c.Request.Context(), in); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, MsgRegisteredOK, nil)
}
