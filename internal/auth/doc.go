// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

// Package auth provides credential authentication and token lifecycle for
// InventoryApp.
//
// # Tokens
//
// A login issues a pair: a signed HS256 access token carrying the
// credential's subject, first name and role, and an opaque random refresh
// token. Both are stored only as SHA-256 digests (see HashToken). An access
// token records the refresh token it was minted with so that Logout can
// revoke the pair together.
//
// A refresh token is single use. RefreshAccessToken consumes it with a
// conditional update; the caller keeps presenting the same refresh string
// until it expires, but only the first exchange succeeds.
//
// # Services
//
// Service coordinates the stores:
//   - Login, RefreshAccessToken, Logout, Authenticate - token lifecycle
//   - RegisterCandidate - self-service registration pending approval
//   - Me, ResetPassword - operations on the authenticated credential
//
// Janitor deletes expired tokens on an interval.
//
// Every error a caller should see carries an oops code (the Code* constants)
// and a public message; anything else is an internal failure.
package auth
