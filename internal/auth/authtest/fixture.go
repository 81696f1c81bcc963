// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package authtest

import (
	"time"

	"github.com/inventoryapp/inventoryauth/internal/auth"
)

// Fixed values shared by tests.
const (
	SigningKey = "test-signing-key-0123456789abcdef0123456789"
	Issuer     = "inventoryauth-test"
	Audience   = "inventoryapp-test"

	AdminRoleID = 1
	UserRoleID  = 2
	SupplierID  = 10
)

// Clock is a settable time source.
type Clock struct {
	now time.Time
}

// NewClock returns a clock stopped at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return c.now }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// IssuerConfig returns a valid issuer configuration.
func IssuerConfig() auth.IssuerConfig {
	return auth.IssuerConfig{
		SigningKey: []byte(SigningKey),
		Issuer:     Issuer,
		Audience:   Audience,
		AccessTTL:  auth.DefaultAccessTTL,
		RefreshTTL: auth.DefaultRefreshTTL,
	}
}

// SeedDirectory adds the admin and user roles and one supplier.
func SeedDirectory(s *Store) {
	s.PutRole(auth.Role{ID: AdminRoleID, Name: auth.AdminRoleName})
	s.PutRole(auth.Role{ID: UserRoleID, Name: "Employee"})
	s.PutSupplier(auth.Supplier{ID: SupplierID, Name: "Acme Supplies"})
}

// SeedCredential stores a credential with password hashed by h.
func SeedCredential(s *Store, h auth.PasswordHasher, email, password string, roleID int64) (int64, error) {
	hash, salt, err := h.Hash(password)
	if err != nil {
		return 0, err
	}
	return s.PutCredential(auth.Credential{
		FirstName:    "Morgan",
		LastName:     "Example",
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		RoleID:       roleID,
		SupplierID:   SupplierID,
		Approved:     true,
		Lifecycle:    auth.Active(),
	}), nil
}

// NewService wires a Service over s using the real hasher and an issuer
// driven by clock.
func NewService(s *Store, clock *Clock) (*auth.Service, error) {
	issuer, err := auth.NewTokenIssuer(IssuerConfig(), clock.Now)
	if err != nil {
		return nil, err
	}
	return auth.NewService(auth.ServiceConfig{
		Credentials: s,
		Tokens:      s,
		Directory:   s,
		Notifier:    s,
		Transactor:  s,
		Hasher:      auth.NewArgon2idHasher(),
		Issuer:      issuer,
		Clock:       clock.Now,
	})
}
