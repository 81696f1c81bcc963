// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

// Package authtest provides an in-memory implementation of the auth stores
// for tests that exercise Service end to end without a database.
package authtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inventoryapp/inventoryauth/internal/auth"
)

// Store keeps credentials, directory entries, tokens and notifications in
// memory. Transactions are serialized and roll back on error.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID        int64
	credentials   map[int64]auth.Credential
	roles         map[int64]auth.Role
	suppliers     map[int64]auth.Supplier
	accessTokens  map[ulid.ULID]auth.AccessToken
	refreshTokens map[ulid.ULID]auth.RefreshToken
	notifications []auth.Notification
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		credentials:   make(map[int64]auth.Credential),
		roles:         make(map[int64]auth.Role),
		suppliers:     make(map[int64]auth.Supplier),
		accessTokens:  make(map[ulid.ULID]auth.AccessToken),
		refreshTokens: make(map[ulid.ULID]auth.RefreshToken),
	}
}

// PutRole adds or replaces a role.
func (s *Store) PutRole(r auth.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID] = r
}

// PutSupplier adds or replaces a supplier.
func (s *Store) PutSupplier(sp auth.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers[sp.ID] = sp
}

// PutCredential adds a credential, assigning an ID when it has none.
func (s *Store) PutCredential(c auth.Credential) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		s.nextID++
		c.ID = s.nextID
	} else if c.ID > s.nextID {
		s.nextID = c.ID
	}
	s.credentials[c.ID] = c
	return c.ID
}

// Notifications returns a copy of every notification written so far.
func (s *Store) Notifications() []auth.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.Notification(nil), s.notifications...)
}

// RefreshToken returns the stored refresh token with the given ID.
func (s *Store) RefreshToken(id ulid.ULID) (auth.RefreshToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.refreshTokens[id]
	return rt, ok
}

// Counts returns the number of stored access and refresh tokens.
func (s *Store) Counts() (access, refresh int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accessTokens), len(s.refreshTokens)
}

// InTransaction implements auth.Transactor.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	nextID        int64
	credentials   map[int64]auth.Credential
	accessTokens  map[ulid.ULID]auth.AccessToken
	refreshTokens map[ulid.ULID]auth.RefreshToken
	notifications int
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		nextID:        s.nextID,
		credentials:   make(map[int64]auth.Credential, len(s.credentials)),
		accessTokens:  make(map[ulid.ULID]auth.AccessToken, len(s.accessTokens)),
		refreshTokens: make(map[ulid.ULID]auth.RefreshToken, len(s.refreshTokens)),
		notifications: len(s.notifications),
	}
	for k, v := range s.credentials {
		snap.credentials[k] = v
	}
	for k, v := range s.accessTokens {
		snap.accessTokens[k] = v
	}
	for k, v := range s.refreshTokens {
		snap.refreshTokens[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.credentials = snap.credentials
	s.accessTokens = snap.accessTokens
	s.refreshTokens = snap.refreshTokens
	s.notifications = s.notifications[:snap.notifications]
}

func notFound(kind string) error {
	return oops.Code("NOT_FOUND").With("kind", kind).Wrap(auth.ErrNotFound)
}

// GetByEmail implements auth.CredentialRepository.
func (s *Store) GetByEmail(_ context.Context, email string) (*auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *auth.Credential
	for _, c := range s.credentials {
		if !strings.EqualFold(c.Email, email) {
			continue
		}
		c := c
		if found == nil || (found.Lifecycle.IsDeleted() && !c.Lifecycle.IsDeleted()) {
			found = &c
		}
	}
	if found == nil {
		return nil, notFound("credential")
	}
	s.resolveRole(found)
	return found, nil
}

// GetByID implements auth.CredentialRepository.
func (s *Store) GetByID(_ context.Context, id int64) (*auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[id]
	if !ok {
		return nil, notFound("credential")
	}
	s.resolveRole(&c)
	return &c, nil
}

func (s *Store) resolveRole(c *auth.Credential) {
	if r, ok := s.roles[c.RoleID]; ok {
		c.RoleName = r.Name
	} else {
		c.RoleName = ""
	}
}

// EmailInUse implements auth.CredentialRepository.
func (s *Store) EmailInUse(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailInUseLocked(email), nil
}

func (s *Store) emailInUseLocked(email string) bool {
	for _, c := range s.credentials {
		if strings.EqualFold(c.Email, email) && !c.Lifecycle.IsDeleted() {
			return true
		}
	}
	return false
}

// Create implements auth.CredentialRepository.
func (s *Store) Create(_ context.Context, cred *auth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailInUseLocked(cred.Email) {
		return oops.Code("CREDENTIAL_CREATE_FAILED").Wrap(auth.ErrDuplicateEmail)
	}
	s.nextID++
	cred.ID = s.nextID
	s.credentials[cred.ID] = *cred
	return nil
}

// UpdatePassword implements auth.CredentialRepository.
func (s *Store) UpdatePassword(_ context.Context, id int64, hash, salt []byte, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[id]
	if !ok {
		return notFound("credential")
	}
	c.PasswordHash = hash
	c.PasswordSalt = salt
	c.UpdatedAt = at
	s.credentials[id] = c
	return nil
}

// CreateAccessToken implements auth.TokenRepository.
func (s *Store) CreateAccessToken(_ context.Context, t *auth.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTokens[t.ID] = *t
	return nil
}

// GetAccessTokenByHash implements auth.TokenRepository.
func (s *Store) GetAccessTokenByHash(_ context.Context, hash string) (*auth.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.accessTokens {
		if t.TokenHash == hash {
			t := t
			return &t, nil
		}
	}
	return nil, notFound("access_token")
}

// RevokeAccessToken implements auth.TokenRepository.
func (s *Store) RevokeAccessToken(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.accessTokens[id]
	if !ok {
		return notFound("access_token")
	}
	t.Revoked = true
	s.accessTokens[id] = t
	return nil
}

// CreateRefreshToken implements auth.TokenRepository.
func (s *Store) CreateRefreshToken(_ context.Context, t *auth.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens[t.ID] = *t
	return nil
}

// GetRefreshTokenByHash implements auth.TokenRepository.
func (s *Store) GetRefreshTokenByHash(_ context.Context, hash string) (*auth.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.refreshTokens {
		if t.TokenHash == hash {
			t := t
			return &t, nil
		}
	}
	return nil, notFound("refresh_token")
}

// GetRefreshTokenByID implements auth.TokenRepository.
func (s *Store) GetRefreshTokenByID(_ context.Context, id ulid.ULID) (*auth.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.refreshTokens[id]
	if !ok {
		return nil, notFound("refresh_token")
	}
	return &t, nil
}

// RevokeRefreshToken implements auth.TokenRepository.
func (s *Store) RevokeRefreshToken(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.refreshTokens[id]
	if !ok {
		return notFound("refresh_token")
	}
	t.Revoked = true
	s.refreshTokens[id] = t
	return nil
}

// DeleteRefreshToken implements auth.TokenRepository.
func (s *Store) DeleteRefreshToken(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.refreshTokens[id]; !ok {
		return notFound("refresh_token")
	}
	delete(s.refreshTokens, id)
	for k, at := range s.accessTokens {
		if at.RefreshTokenID != nil && *at.RefreshTokenID == id {
			at.RefreshTokenID = nil
			s.accessTokens[k] = at
		}
	}
	return nil
}

// MarkRefreshTokenUsed implements auth.TokenRepository.
func (s *Store) MarkRefreshTokenUsed(_ context.Context, id ulid.ULID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.refreshTokens[id]
	if !ok || t.Used || t.Revoked || !now.Before(t.ExpiresAt) {
		return false, nil
	}
	t.Used = true
	s.refreshTokens[id] = t
	return true, nil
}

// DeleteExpiredAccessTokens implements auth.TokenSweeper.
func (s *Store) DeleteExpiredAccessTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.accessTokens {
		if t.ExpiresAt.Before(now) {
			delete(s.accessTokens, id)
			n++
		}
	}
	return n, nil
}

// DeleteExpiredRefreshTokens implements auth.TokenSweeper.
func (s *Store) DeleteExpiredRefreshTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.refreshTokens {
		if !t.ExpiresAt.Before(now) {
			continue
		}
		delete(s.refreshTokens, id)
		for k, at := range s.accessTokens {
			if at.RefreshTokenID != nil && *at.RefreshTokenID == id {
				at.RefreshTokenID = nil
				s.accessTokens[k] = at
			}
		}
		n++
	}
	return n, nil
}

// GetRole implements auth.Directory.
func (s *Store) GetRole(_ context.Context, id int64) (*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, notFound("role")
	}
	return &r, nil
}

// GetSupplier implements auth.Directory.
func (s *Store) GetSupplier(_ context.Context, id int64) (*auth.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.suppliers[id]
	if !ok {
		return nil, notFound("supplier")
	}
	return &sp, nil
}

// AdminIDs implements auth.Directory.
func (s *Store) AdminIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, c := range s.credentials {
		if c.Lifecycle.IsDeleted() {
			continue
		}
		if r, ok := s.roles[c.RoleID]; ok && r.Name == auth.AdminRoleName {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Notify implements auth.Notifier.
func (s *Store) Notify(_ context.Context, notes ...auth.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, notes...)
	return nil
}

var (
	_ auth.CredentialRepository = (*Store)(nil)
	_ auth.TokenRepository      = (*Store)(nil)
	_ auth.TokenSweeper         = (*Store)(nil)
	_ auth.Directory            = (*Store)(nil)
	_ auth.Notifier             = (*Store)(nil)
	_ auth.Transactor           = (*Store)(nil)
)
