// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/inventoryapp/inventoryauth/internal/auth"
	"github.com/inventoryapp/inventoryauth/pkg/errutil"
)

// Messages not owned by the auth package.
const (
	MsgUnexpected      = "An unexpected error occurred."
	MsgInvalidBody     = "Invalid request body."
	MsgTooManyRequests = "Too many requests."
	MsgNotFound        = "Not found."
)

// Envelope is the body of every response. Data is set on success and Errors
// on a validation failure.
type Envelope struct {
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  []auth.FieldError `json:"errors,omitempty"`
}

// badRequestCodes are failures the caller can fix; every other code is a
// server fault.
var badRequestCodes = map[string]bool{
	auth.CodeValidation:           true,
	auth.CodeInvalidCredentials:   true,
	auth.CodeInvalidToken:         true,
	auth.CodeTokenExpired:         true,
	auth.CodeTokenAlreadyUsed:     true,
	auth.CodeTokenRevoked:         true,
	auth.CodeUserNoLongerExists:   true,
	auth.CodeRefreshTokenNotFound: true,
	auth.CodeEmailTaken:           true,
	auth.CodeRoleNotFound:         true,
	auth.CodeSupplierNotFound:     true,
	auth.CodeUserNotFound:         true,
	auth.CodeWrongOldPassword:     true,
}

func respond(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Message: message, Data: data})
}

// respondError writes err as a 400 when its code is a known caller failure
// and as an opaque 500 otherwise. Server faults are logged with their oops
// code and context.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	respondErrorStatus(c, logger, err, http.StatusBadRequest)
}

func respondErrorStatus(c *gin.Context, logger *slog.Logger, err error, status int) {
	_ = c.Error(err)

	code := errutil.Code(err)
	if !badRequestCodes[code] {
		errutil.LogErrorContext(c.Request.Context(), logger, "request failed", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{Message: MsgUnexpected})
		return
	}

	c.AbortWithStatusJSON(status, Envelope{
		Message: errutil.PublicMessage(err, MsgUnexpected),
		Errors:  auth.FieldErrors(err),
	})
}

// bindJSON decodes the body into v. A malformed body is answered with 400
// and false is returned.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(oops.Code("HTTP_INVALID_BODY").Wrap(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{Message: MsgInvalidBody})
		return false
	}
	return true
}
