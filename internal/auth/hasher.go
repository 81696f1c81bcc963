// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// Stand-ins verified when no credential matches, so a miss costs the same
// as a wrong password. No password derives to an all-zero key.
var (
	dummyHash = make([]byte, argon2KeyLen)
	dummySalt = make([]byte, argon2SaltLen)
)

// PasswordHasher derives and checks password hashes. Hash and salt are
// stored as separate opaque blobs.
type PasswordHasher interface {
	// Hash derives a hash of password under a freshly generated salt.
	Hash(password string) (hash, salt []byte, err error)

	// Verify reports whether password derives to hash under salt.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// when the stored hash or salt is malformed.
	Verify(password string, hash, salt []byte) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id key and the salt it was derived with.
func (h *Argon2idHasher) Hash(password string) ([]byte, []byte, error) {
	if password == "" {
		return nil, nil, ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	return h.derive(password, salt), salt, nil
}

// Verify recomputes the key with the stored salt and compares in constant time.
func (h *Argon2idHasher) Verify(password string, hash, salt []byte) (bool, error) {
	if len(salt) != argon2SaltLen {
		return false, oops.Code("AUTH_MALFORMED_HASH").
			With("salt_len", len(salt)).
			Errorf("stored salt has unexpected length")
	}
	if len(hash) != argon2KeyLen {
		return false, oops.Code("AUTH_MALFORMED_HASH").
			With("hash_len", len(hash)).
			Errorf("stored hash has unexpected length")
	}

	computed := h.derive(password, salt)
	return subtle.ConstantTimeCompare(computed, hash) == 1, nil
}

func (h *Argon2idHasher) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

var _ PasswordHasher = (*Argon2idHasher)(nil)
