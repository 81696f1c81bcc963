// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"strings"
	"time"

	"github.com/samber/oops"
)

// AdminRoleName is the role whose holders receive account notifications.
const AdminRoleName = "Admin"

// DefaultRoleLabel is placed in the role claim when a credential's role
// could not be resolved.
const DefaultRoleLabel = "User"

// Lifecycle is the soft-delete state of a stored record: either active, or
// deleted at some instant. The zero value is active.
type Lifecycle struct {
	deleted   bool
	deletedAt time.Time
}

// Active returns the lifecycle of a live record.
func Active() Lifecycle {
	return Lifecycle{}
}

// Deleted returns the lifecycle of a record soft-deleted at at.
func Deleted(at time.Time) Lifecycle {
	return Lifecycle{deleted: true, deletedAt: at}
}

// LifecycleFromColumns builds a Lifecycle from the stored flag and the
// nullable timestamp. A set flag with no timestamp is still deleted.
func LifecycleFromColumns(deleted bool, deletedAt *time.Time) Lifecycle {
	if !deleted {
		return Active()
	}
	if deletedAt == nil {
		return Lifecycle{deleted: true}
	}
	return Deleted(*deletedAt)
}

// IsDeleted reports whether the record has been soft-deleted.
func (l Lifecycle) IsDeleted() bool {
	return l.deleted
}

// DeletedAt returns the deletion instant, if one was recorded.
func (l Lifecycle) DeletedAt() (time.Time, bool) {
	if !l.deleted || l.deletedAt.IsZero() {
		return time.Time{}, false
	}
	return l.deletedAt, true
}

// Columns returns the (flag, timestamp) pair for persistence.
func (l Lifecycle) Columns() (bool, *time.Time) {
	if at, ok := l.DeletedAt(); ok {
		return true, &at
	}
	return l.deleted, nil
}

// EnsureActive returns a not-found error for deleted records. Every check
// that must never act on a soft-deleted record goes through here.
func EnsureActive(kind string, id int64, lc Lifecycle) error {
	if !lc.IsDeleted() {
		return nil
	}
	return oops.Code("AUTH_RECORD_DELETED").
		With("kind", kind).
		With("id", id).
		Wrap(ErrNotFound)
}

// Credential is an authenticatable user account.
type Credential struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash []byte
	PasswordSalt []byte
	RoleID       int64
	RoleName     string // resolved by the store; empty when the role is missing
	SupplierID   int64
	Approved     bool
	Lifecycle    Lifecycle
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayRole returns the role name for token claims and profiles.
func (c *Credential) DisplayRole() string {
	if c.RoleName == "" {
		return DefaultRoleLabel
	}
	return c.RoleName
}

// Role is a named permission group.
type Role struct {
	ID        int64
	Name      string
	Lifecycle Lifecycle
}

// Supplier is the tenant a credential belongs to.
type Supplier struct {
	ID        int64
	Name      string
	Lifecycle Lifecycle
}

// Profile is the identity view returned for the current caller.
type Profile struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"firstName"`
	Role       string `json:"role"`
	SupplierID int64  `json:"supplierId"`
}

// NormalizeEmail trims surrounding whitespace. Case is preserved for storage;
// lookups compare case-insensitively.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
