// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package eventstore

// Config configures the DuckDB connection, mirroring
// internal/config.StoreConfig.
type Config struct {
	Path                   string
	MaxMemory              string
	Threads                int
	PreserveInsertionOrder bool
}

// DefaultConfig returns sensible defaults for local/single-node use.
func DefaultConfig(path string) Config {
	return Config{
		Path:                   path,
		MaxMemory:              "2GB",
		Threads:                0,
		PreserveInsertionOrder: true,
	}
}
