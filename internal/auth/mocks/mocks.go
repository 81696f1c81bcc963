// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/inventoryapp/inventoryauth/internal/auth"
)

// TestingT is satisfied by *testing.T.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockCredentialRepository is a mock auth.CredentialRepository.
type MockCredentialRepository struct {
	mock.Mock
}

// NewMockCredentialRepository returns a mock that asserts its expectations
// when the test ends.
func NewMockCredentialRepository(t TestingT) *MockCredentialRepository {
	m := &MockCredentialRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCredentialRepository) GetByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Credential), args.Error(1)
}

func (m *MockCredentialRepository) GetByID(ctx context.Context, id int64) (*auth.Credential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Credential), args.Error(1)
}

func (m *MockCredentialRepository) EmailInUse(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialRepository) Create(ctx context.Context, cred *auth.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentialRepository) UpdatePassword(ctx context.Context, id int64, hash, salt []byte, at time.Time) error {
	args := m.Called(ctx, id, hash, salt, at)
	return args.Error(0)
}

// MockTokenRepository is a mock auth.TokenRepository.
type MockTokenRepository struct {
	mock.Mock
}

// NewMockTokenRepository returns a mock that asserts its expectations when
// the test ends.
func NewMockTokenRepository(t TestingT) *MockTokenRepository {
	m := &MockTokenRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenRepository) CreateAccessToken(ctx context.Context, token *auth.AccessToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) GetAccessTokenByHash(ctx context.Context, tokenHash string) (*auth.AccessToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AccessToken), args.Error(1)
}

func (m *MockTokenRepository) RevokeAccessToken(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTokenRepository) CreateRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.RefreshToken), args.Error(1)
}

func (m *MockTokenRepository) GetRefreshTokenByID(ctx context.Context, id ulid.ULID) (*auth.RefreshToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.RefreshToken), args.Error(1)
}

func (m *MockTokenRepository) RevokeRefreshToken(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteRefreshToken(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTokenRepository) MarkRefreshTokenUsed(ctx context.Context, id ulid.ULID, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

// MockTokenSweeper is a mock auth.TokenSweeper.
type MockTokenSweeper struct {
	mock.Mock
}

// NewMockTokenSweeper returns a mock that asserts its expectations when the
// test ends.
func NewMockTokenSweeper(t TestingT) *MockTokenSweeper {
	m := &MockTokenSweeper{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenSweeper) DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenSweeper) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockDirectory is a mock auth.Directory.
type MockDirectory struct {
	mock.Mock
}

// NewMockDirectory returns a mock that asserts its expectations when the
// test ends.
func NewMockDirectory(t TestingT) *MockDirectory {
	m := &MockDirectory{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDirectory) GetRole(ctx context.Context, id int64) (*auth.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Role), args.Error(1)
}

func (m *MockDirectory) GetSupplier(ctx context.Context, id int64) (*auth.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Supplier), args.Error(1)
}

func (m *MockDirectory) AdminIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockNotifier is a mock auth.Notifier.
type MockNotifier struct {
	mock.Mock
}

// NewMockNotifier returns a mock that asserts its expectations when the
// test ends.
func NewMockNotifier(t TestingT) *MockNotifier {
	m := &MockNotifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNotifier) Notify(ctx context.Context, notes ...auth.Notification) error {
	args := m.Called(ctx, notes)
	return args.Error(0)
}

// MockPasswordHasher is a mock auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher returns a mock that asserts its expectations when
// the test ends.
func NewMockPasswordHasher(t TestingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) ([]byte, []byte, error) {
	args := m.Called(password)
	var hash, salt []byte
	if v := args.Get(0); v != nil {
		hash = v.([]byte)
	}
	if v := args.Get(1); v != nil {
		salt = v.([]byte)
	}
	return hash, salt, args.Error(2)
}

func (m *MockPasswordHasher) Verify(password string, hash, salt []byte) (bool, error) {
	args := m.Called(password, hash, salt)
	return args.Bool(0), args.Error(1)
}

// Transactor runs the callback inline and returns its error. It counts how
// many transactions were opened.
type Transactor struct {
	Calls int
}

// InTransaction implements auth.Transactor.
func (tx *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.Calls++
	return fn(ctx)
}

var (
	_ auth.CredentialRepository = (*MockCredentialRepository)(nil)
	_ auth.TokenRepository      = (*MockTokenRepository)(nil)
	_ auth.TokenSweeper         = (*MockTokenSweeper)(nil)
	_ auth.Directory            = (*MockDirectory)(nil)
	_ auth.Notifier             = (*MockNotifier)(nil)
	_ auth.PasswordHasher       = (*MockPasswordHasher)(nil)
	_ auth.Transactor           = (*Transactor)(nil)
)
