// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

// Package httpapi exposes the authentication service over HTTP with gin.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds the router's collaborators. Only Service is required.
type RouterConfig struct {
	Service Service
	Logger  *slog.Logger
	// Metrics, when set, observes every request.
	Metrics RequestRecorder
	// Limiter, when set, guards login, refresh and register.
	Limiter *RateLimiter
}

// NewRouter builds the gin engine serving /auth.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	// recovery sits inside accessLog so a recovered panic is still logged and
	// recorded as a 500.
	r.Use(requestID(), accessLog(logger, cfg.Metrics), recovery(logger))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Envelope{Message: MsgNotFound})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, Envelope{Message: http.StatusText(http.StatusMethodNotAllowed)})
	})

	h := &handlers{svc: cfg.Service, logger: logger}

	limited := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if cfg.Limiter == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{rateLimit(cfg.Limiter), handler}
	}
	authed := requireAuth(cfg.Service, logger)

	g := r.Group("/auth")
	g.POST("/login", limited(h.login)...)
	g.POST("/refresh-token", limited(h.refresh)...)
	g.POST("/register", limited(h.register)...)
	g.POST("/logout", h.logout)
	g.GET("/me", authed, h.me)
	g.PUT("/reset-password", authed, h.resetPassword)

	return r
}
