// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/samber/oops"
)

// Me returns the profile of the authenticated credential.
func (s *Service) Me(ctx context.Context, credentialID int64) (*Profile, error) {
	cred, err := s.credentials.GetByID(ctx, credentialID)
	if err == nil {
		err = EnsureActive("credential", cred.ID, cred.Lifecycle)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errInvalidToken("token subject no longer exists")
		}
		return nil, oops.Code("AUTH_PROFILE_FAILED").
			With("credential_id", credentialID).
			Wrap(err)
	}

	return &Profile{
		ID:         cred.ID,
		FirstName:  cred.FirstName,
		Role:       cred.DisplayRole(),
		SupplierID: cred.SupplierID,
	}, nil
}

// ResetPassword changes the caller's password after checking the old one.
// Admins other than the caller are told about the change. Outstanding tokens
// are left alone.
func (s *Service) ResetPassword(ctx context.Context, credentialID int64, change PasswordChange) error {
	if err := Validate(change); err != nil {
		return err
	}

	cred, err := s.credentials.GetByID(ctx, credentialID)
	if err == nil {
		err = EnsureActive("credential", cred.ID, cred.Lifecycle)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(CodeUserNotFound, MsgUserNotFound).
				With("credential_id", credentialID).
				Errorf("credential not found")
		}
		return oops.Code("AUTH_RESET_FAILED").
			With("operation", "get credential").
			With("credential_id", credentialID).
			Wrap(err)
	}

	ok, err := s.hasher.Verify(change.OldPassword, cred.PasswordHash, cred.PasswordSalt)
	if err != nil {
		return oops.Code("AUTH_RESET_FAILED").
			With("operation", "verify old password").
			With("credential_id", credentialID).
			Wrap(err)
	}
	if !ok {
		return failure(CodeWrongOldPassword, MsgWrongOldPassword).
			With("credential_id", credentialID).
			Errorf("old password mismatch")
	}

	hash, salt, err := s.hasher.Hash(change.NewPassword)
	if err != nil {
		return oops.Code("AUTH_RESET_FAILED").With("operation", "hash password").Wrap(err)
	}

	admins, err := s.directory.AdminIDs(ctx)
	if err != nil {
		return oops.Code("AUTH_RESET_FAILED").With("operation", "list admins").Wrap(err)
	}

	now := s.clock()
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.credentials.UpdatePassword(ctx, cred.ID, hash, salt, now); err != nil {
			return err
		}
		return s.notifier.Notify(ctx, passwordChangedNotices(admins, cred)...)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(CodeUserNotFound, MsgUserNotFound).
				With("credential_id", credentialID).
				Errorf("credential removed during password change")
		}
		return oops.Code("AUTH_RESET_FAILED").
			With("operation", "update password").
			With("credential_id", credentialID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password changed", "credential_id", cred.ID)
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
