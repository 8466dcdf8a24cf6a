// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"
	json "github.com/goccy/go-json"

	eventpkg "github.com/tomtom215/cartographus/internal/event"
)

// ErrDuplicateIdempotencyKey is returned by Insert when idempotency_key
// already exists in the table; the caller (C9) holds the existing row's
// ID from its own Badger-backed check before it ever reaches here, so this
// is a defense-in-depth path rather than the primary dedup mechanism.
var ErrDuplicateIdempotencyKey = errors.New("eventstore: idempotency key already exists")

// Store persists Events to DuckDB under a single transactional
// insert/update per write, per SPEC_FULL.md §4.9's "persists under
// transaction" requirement.
type Store struct {
	db *sql.DB
}

// Open connects to cfg.Path, creating the parent directory, schema, and
// indexes if they don't already exist.
func Open(cfg Config) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s",
		cfg.Path, threads, maxMemory, preserveOrder)

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.createIndexes(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close flushes any pending WAL entries and closes the connection.
func (s *Store) Close() error {
	ctx, cancel := schemaContext()
	defer cancel()
	if _, err := s.db.ExecContext(ctx, "CHECKPOINT"); err != nil {
		// Best effort; a failed checkpoint doesn't block shutdown.
		_ = err
	}
	return s.db.Close()
}

// Ping verifies the connection is alive, used by the ingest façade's
// health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Insert writes e to the events table inside a single transaction. If
// e.IdempotencyKey collides with an existing row, the insert is rolled
// back and ErrDuplicateIdempotencyKey is returned.
func (s *Store) Insert(ctx context.Context, e *eventpkg.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	metadata, err := marshalMetadata(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO events (
		id, user_id, event_type, timestamp, priority, payload, metadata,
		processed_at, status, idempotency_key, retry_count, last_error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (idempotency_key) DO NOTHING`

	idempotencyKey := nullableString(e.IdempotencyKey)

	result, err := tx.ExecContext(ctx, insert,
		e.ID, e.UserID, string(e.EventType), e.Timestamp, e.Priority, string(payload), metadata,
		e.ProcessedAt, string(e.Status), idempotencyKey, e.RetryCount, nullableString(e.LastError),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if idempotencyKey != nil {
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if rows == 0 {
			return ErrDuplicateIdempotencyKey
		}
	}

	return tx.Commit()
}

// UpdateStatus transitions e's row to status, recording processedAt and
// lastError when present, inside a single transaction.
func (s *Store) UpdateStatus(ctx context.Context, id string, status eventpkg.Status, retryCount int, lastError string, processedAt *sqlNullTime) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const update = `UPDATE events SET
		status = ?, retry_count = ?, last_error = ?, processed_at = ?, updated_at = current_timestamp
	WHERE id = ?`

	var processed interface{}
	if processedAt != nil && processedAt.Valid {
		processed = processedAt.Time
	}

	if _, err := tx.ExecContext(ctx, update, string(status), retryCount, nullableString(lastError), processed, id); err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	return tx.Commit()
}

// GetByID returns the row with the given ID, or sql.ErrNoRows if absent.
func (s *Store) GetByID(ctx context.Context, id string) (*eventpkg.Event, error) {
	return s.scanOne(ctx, "SELECT "+selectColumns+" FROM events WHERE id = ?", id)
}

// GetByIdempotencyKey returns the row with the given idempotency key, or
// sql.ErrNoRows if absent.
func (s *Store) GetByIdempotencyKey(ctx context.Context, key string) (*eventpkg.Event, error) {
	return s.scanOne(ctx, "SELECT "+selectColumns+" FROM events WHERE idempotency_key = ?", key)
}

const selectColumns = `id, user_id, event_type, timestamp, priority, payload, metadata, processed_at, status, idempotency_key, retry_count, last_error`

func (s *Store) scanOne(ctx context.Context, query string, arg string) (*eventpkg.Event, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	return scanEvent(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*eventpkg.Event, error) {
	var e eventpkg.Event
	var payload, metadata sql.NullString
	var idempotencyKey, lastError sql.NullString
	var processedAt sql.NullTime
	var eventType, status string

	err := row.Scan(&e.ID, &e.UserID, &eventType, &e.Timestamp, &e.Priority, &payload, &metadata,
		&processedAt, &status, &idempotencyKey, &e.RetryCount, &lastError)
	if err != nil {
		return nil, err
	}

	e.EventType = eventpkg.Type(eventType)
	e.Status = eventpkg.Status(status)
	e.IdempotencyKey = idempotencyKey.String
	e.LastError = lastError.String
	if processedAt.Valid {
		e.ProcessedAt = &processedAt.Time
	}
	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		var m eventpkg.Metadata
		if err := json.Unmarshal([]byte(metadata.String), &m); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		e.Metadata = &m
	}
	return &e, nil
}

// Counts reports row counts by status, used by the system diagnostics
// endpoint.
func (s *Store) Counts(ctx context.Context) (map[eventpkg.Status]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, count(*) FROM events GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[eventpkg.Status]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[eventpkg.Status(status)] = count
	}
	return counts, rows.Err()
}

func marshalMetadata(m *eventpkg.Metadata) (interface{}, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// sqlNullTime re-exports sql.NullTime so callers outside this package
// don't need to import database/sql just to call UpdateStatus.
type sqlNullTime = sql.NullTime
