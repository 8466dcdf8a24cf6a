// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package processor

import "time"

// Config holds the parameters of the idempotency check.
type Config struct {
	// IdempotencyTTL is how long idempotency:<key> survives in Badger
	// once written, per SPEC_FULL.md §4.9 step 2d ("TTL=24h").
	IdempotencyTTL time.Duration
}

// DefaultConfig returns the SPEC_FULL.md §4.9 default.
func DefaultConfig() Config {
	return Config{IdempotencyTTL: 24 * time.Hour}
}
