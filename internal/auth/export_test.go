// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import "time"

// SetJanitorClock replaces the janitor's time source.
func SetJanitorClock(j *Janitor, clock func() time.Time) {
	j.clock = clock
}
