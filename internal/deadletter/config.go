// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package deadletter

import "time"

// Config controls the KV backup list's capacity, the file fallback's
// location, and how much of the KV backup restore_from_backup drains per
// call. Defaults per SPEC_FULL.md §4.7.
type Config struct {
	// BackupListMax trims the Badger-backed backup list to this many
	// entries, oldest first.
	BackupListMax int
	// FileBackupPath is the final fallback when both the broker and the
	// KV backup list fail.
	FileBackupPath string
	// RestoreBatch bounds how many entries RestoreFromBackup republishes
	// per call.
	RestoreBatch int
	// SweepInterval is how often the Sweeper checks the time-wheel for
	// due entries.
	SweepInterval time.Duration
}

// DefaultConfig returns the SPEC_FULL.md §4.7 defaults.
func DefaultConfig() Config {
	return Config{
		BackupListMax:  10_000,
		FileBackupPath: "dlq_backup.log",
		RestoreBatch:   100,
		SweepInterval:  time.Second,
	}
}
