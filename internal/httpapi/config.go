// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import "time"

// Config holds the ingest façade's own parameters, mirroring
// internal/config.ServerConfig.
type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
	IdempotencyTTL time.Duration
}

// DefaultConfig returns the SPEC_FULL.md §4.8/§4.9 defaults.
func DefaultConfig() Config {
	return Config{
		RateLimitRPS:   100,
		RateLimitBurst: 200,
		CORSOrigins:    []string{},
		IdempotencyTTL: 24 * time.Hour,
	}
}
