// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package eventstore

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the events table per SPEC_FULL.md §6's persisted
// event row layout.
func (s *Store) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	const query = `CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		priority INTEGER NOT NULL,
		payload JSON,
		metadata JSON,
		processed_at TIMESTAMP,
		status TEXT NOT NULL,
		idempotency_key TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
		updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

// createIndexes creates the secondary indexes §6 names, plus the unique
// index on idempotency_key that backs the database-level dedup guarantee.
func (s *Store) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_events_user_timestamp ON events (user_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_processed ON events (event_type, processed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_status_priority ON events (status, priority)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_events_idempotency_key ON events (idempotency_key)`,
	}

	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %s: %w", idx, err)
		}
	}
	return nil
}
