// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// PasswordSymbols is the punctuation set a password must draw from.
const PasswordSymbols = "!@#$%^&*()-+="

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email,min=4,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

// Candidate is a registration request.
type Candidate struct {
	FirstName     string `json:"firstName" validate:"required,min=5,max=30"`
	LastName      string `json:"lastName" validate:"required,min=5,max=30"`
	Email         string `json:"email" validate:"required,email,min=4,max=50"`
	Password      string `json:"password" validate:"required,password"`
	PasswordMatch string `json:"passwordMatch" validate:"required,eqfield=Password"`
	RoleID        int64  `json:"roleId" validate:"gt=0"`
	SupplierID    int64  `json:"supplierId" validate:"gt=0"`
}

// PasswordChange is a password reset request from an authenticated caller.
type PasswordChange struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

// RefreshInput is the body of a refresh request.
type RefreshInput struct {
	Token string `json:"token" validate:"required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		//nolint:errcheck // tag name is a constant; registration only fails on an empty tag
		validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return PasswordMeetsPolicy(fl.Field().String())
		})
	})
	return validate
}

// PasswordMeetsPolicy reports whether pw is at least 8 characters and holds
// an ASCII uppercase letter, an ASCII lowercase letter, a digit and a symbol
// from PasswordSymbols. Letters outside A-Z and a-z count toward the length
// only.
func PasswordMeetsPolicy(pw string) bool {
	if len([]rune(pw)) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// Validate checks v against its struct tags. Failures are returned as an
// AUTH_VALIDATION_FAILED error wrapping a *ValidationError.
func Validate(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return oops.Code(CodeValidation).Public("Invalid request.").Wrap(err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	verr := &ValidationError{Fields: fields}
	return oops.Code(CodeValidation).Public(verr.Error()).Wrap(verr)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s cannot be empty.", field)
	case "email":
		return "Must be a valid e-mail address."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than zero.", field)
	case "eqfield":
		return "Passwords do not match."
	case "password":
		return fmt.Sprintf("%s must be at least 8 characters and contain an uppercase letter, a lowercase letter, a digit and one of %s", field, PasswordSymbols)
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}
