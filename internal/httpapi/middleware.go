// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package httpapi

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inventoryapp/inventoryauth/internal/auth"
	"github.com/inventoryapp/inventoryauth/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// ctxCredentialID is the gin context key holding the authenticated
// credential id.
const ctxCredentialID = "credential_id"

// RequestRecorder observes finished requests.
type RequestRecorder interface {
	RecordRequest(route string, status int, elapsed time.Duration)
}

// requestID reuses the caller's X-Request-Id or mints a ULID, and attaches
// it to the request context for logging.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = ulid.Make().String()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// recovery turns a panic into a 500 and logs the stack.
func recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{Message: MsgUnexpected})
			}
		}()
		c.Next()
	}
}

// accessLog logs one line per request, at a level chosen by status, and
// reports it to rec when set.
func accessLog(logger *slog.Logger, rec RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()

		if rec != nil {
			rec.RecordRequest(c.FullPath(), status, elapsed)
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			attrs = append(attrs, "error", errs.Last().Error())
		}
		logger.Log(c.Request.Context(), level, "request completed", attrs...)
	}
}

// rateLimit rejects clients that exhausted their bucket with 429 and a
// Retry-After header in whole seconds.
func rateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := rl.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			_ = c.Error(oops.Code("HTTP_RATE_LIMITED").With("client_ip", c.ClientIP()).Errorf("rate limit exceeded"))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Envelope{Message: MsgTooManyRequests})
			return
		}
		c.Next()
	}
}

// bearerToken returns the token of an "Authorization: Bearer" header, or "".
func bearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAuth admits only callers with a valid, unrevoked access token.
// Every token failure is answered with 401.
func requireAuth(svc Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			_ = c.Error(oops.Code(auth.CodeInvalidToken).Errorf("missing bearer token"))
			c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Message: auth.MsgInvalidToken})
			return
		}

		claims, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondErrorStatus(c, logger, err, http.StatusUnauthorized)
			return
		}
		id, err := claims.CredentialID()
		if err != nil {
			respondErrorStatus(c, logger, err, http.StatusUnauthorized)
			return
		}

		c.Set(ctxCredentialID, id)
		c.Next()
	}
}
