// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"errors"
	"strings"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by credential repositories when an insert
// collides with an existing non-deleted credential.
var ErrDuplicateEmail = errors.New("duplicate email")

// Error codes carried by errors returned from Service operations.
const (
	CodeInvalidCredentials   = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidToken         = "AUTH_INVALID_TOKEN"
	CodeTokenExpired         = "AUTH_TOKEN_EXPIRED"
	CodeTokenAlreadyUsed     = "AUTH_TOKEN_ALREADY_USED"
	CodeTokenRevoked         = "AUTH_TOKEN_REVOKED"
	CodeUserNoLongerExists   = "AUTH_USER_NO_LONGER_EXISTS"
	CodeRefreshTokenNotFound = "AUTH_REFRESH_TOKEN_NOT_FOUND"
	CodeEmailTaken           = "AUTH_EMAIL_TAKEN"
	CodeRoleNotFound         = "AUTH_ROLE_NOT_FOUND"
	CodeSupplierNotFound     = "AUTH_SUPPLIER_NOT_FOUND"
	CodeUserNotFound         = "AUTH_USER_NOT_FOUND"
	CodeWrongOldPassword     = "AUTH_WRONG_OLD_PASSWORD"
	CodeValidation           = "AUTH_VALIDATION_FAILED"
)

// Messages shown to API callers. They are attached to errors with
// oops' Public builder and read back at the HTTP boundary.
const (
	MsgInvalidCredentials   = "Invalid email or password."
	MsgInvalidToken         = "Invalid token."
	MsgTokenExpired         = "Token expired."
	MsgTokenAlreadyUsed     = "Refresh token has already been used."
	MsgTokenRevoked         = "Refresh token has been revoked."
	MsgUserNoLongerExists   = "User no longer exist."
	MsgRefreshTokenNotFound = "Refresh token not found."
	MsgEmailTaken           = "There is a user with this email."
	MsgUserNotFound         = "User not found."
	MsgWrongOldPassword     = "Wrong old password."
)

// failure starts an error builder for a caller-facing failure.
func failure(code, public string) oops.OopsErrorBuilder {
	return oops.Code(code).Public(public)
}

func errInvalidCredentials() error {
	return failure(CodeInvalidCredentials, MsgInvalidCredentials).Errorf("invalid email or password")
}

func errInvalidToken(reason string) error {
	return failure(CodeInvalidToken, MsgInvalidToken).With("reason", reason).Errorf("invalid token")
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError collects field errors for one input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, " | ")
}

// FieldErrors returns the field errors carried by err, or nil.
func FieldErrors(err error) []FieldError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
