// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// RegisterCandidate creates an unapproved credential and notifies every
// admin. The credential and its notifications are written in one
// transaction.
func (s *Service) RegisterCandidate(ctx context.Context, c Candidate) (*Credential, error) {
	c.Email = NormalizeEmail(c.Email)
	if err := Validate(c); err != nil {
		return nil, err
	}

	taken, err := s.credentials.EmailInUse(ctx, c.Email)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check email").
			Wrap(err)
	}
	if taken {
		return nil, errEmailTaken(c.Email)
	}

	role, err := s.directory.GetRole(ctx, c.RoleID)
	if err == nil {
		err = EnsureActive("role", role.ID, role.Lifecycle)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, failure(CodeRoleNotFound, "There is no role with ID : "+formatID(c.RoleID)).
				With("role_id", c.RoleID).
				Errorf("role not found")
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get role").
			With("role_id", c.RoleID).
			Wrap(err)
	}

	supplier, err := s.directory.GetSupplier(ctx, c.SupplierID)
	if err == nil {
		err = EnsureActive("supplier", supplier.ID, supplier.Lifecycle)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, failure(CodeSupplierNotFound, "There is no supplier with ID : "+formatID(c.SupplierID)).
				With("supplier_id", c.SupplierID).
				Errorf("supplier not found")
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get supplier").
			With("supplier_id", c.SupplierID).
			Wrap(err)
	}

	hash, salt, err := s.hasher.Hash(c.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	admins, err := s.directory.AdminIDs(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "list admins").Wrap(err)
	}

	now := s.clock()
	cred := &Credential{
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Email:        c.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
		RoleID:       role.ID,
		RoleName:     role.Name,
		SupplierID:   supplier.ID,
		Approved:     false,
		Lifecycle:    Active(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.credentials.Create(ctx, cred); err != nil {
			return err
		}
		return s.notifier.Notify(ctx, registrationNotices(admins, cred.ID)...)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, errEmailTaken(c.Email)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create credential").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "candidate registered",
		"credential_id", cred.ID,
		"role_id", cred.RoleID,
		"supplier_id", cred.SupplierID,
		"admins_notified", len(admins))
	return cred, nil
}

func errEmailTaken(email string) error {
	return failure(CodeEmailTaken, MsgEmailTaken).
		With("email", email).
		Errorf("email already registered")
}
