// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

// Outcome labels reported to a Recorder.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeExpired            = "expired"
	OutcomeAlreadyUsed        = "already_used"
	OutcomeRevoked            = "revoked"
	OutcomeUserMissing        = "user_missing"
	OutcomeError              = "error"
)

// Token kinds reported by the janitor.
const (
	KindAccessToken  = "access"
	KindRefreshToken = "refresh"
)

// Recorder receives counters for authentication events.
type Recorder interface {
	RecordLogin(outcome string)
	RecordRefresh(outcome string)
	RecordSweep(kind string, deleted int64)
}

type nopRecorder struct{}

func (nopRecorder) RecordLogin(string)        {}
func (nopRecorder) RecordRefresh(string)      {}
func (nopRecorder) RecordSweep(string, int64) {}
