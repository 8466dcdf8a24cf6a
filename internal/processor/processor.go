// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package processor

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	eventpkg "github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/eventstore"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
)

const idempotencyPrefix = "idempotency:"

// idempotencyRecord is the JSON value stored under each idempotency:<key>
// key, letting the ingest façade's cached-replay path recover the
// already-assigned event ID without a store round trip.
type idempotencyRecord struct {
	EventID string    `json:"event_id"`
	At      time.Time `json:"at"`
}

// Processor is the terminal step of the ingestion pipeline: idempotency
// check, transactional persist, handler fan-out, and idempotency record.
// Its Process method is the Handler both internal/broker's Consumer and
// internal/streamqueue's Consumer drain into.
type Processor struct {
	idem     *badger.DB
	store    *eventstore.Store
	registry *Registry
	cfg      Config
}

// New builds a Processor. idem is the Badger database backing the
// idempotency KV; store is the transactional DuckDB-backed event store;
// registry is the event_type -> handler mapping fan-out dispatches to.
func New(idem *badger.DB, store *eventstore.Store, registry *Registry, cfg Config) *Processor {
	return &Processor{idem: idem, store: store, registry: registry, cfg: cfg}
}

func idempotencyKey(key string) []byte {
	return append([]byte(idempotencyPrefix), []byte(key)...)
}

// lookupIdempotency returns the event ID previously recorded under key, or
// ("", nil) if key has no record (or key is empty).
func (p *Processor) lookupIdempotency(key string) (string, error) {
	if key == "" {
		return "", nil
	}
	var rec idempotencyRecord
	err := p.idem.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idempotencyKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return "", err
	}
	return rec.EventID, nil
}

func (p *Processor) recordIdempotency(key, eventID string) error {
	if key == "" {
		return nil
	}
	data, err := json.Marshal(idempotencyRecord{EventID: eventID, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return p.idem.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(idempotencyKey(key), data).WithTTL(p.cfg.IdempotencyTTL)
		return txn.SetEntry(entry)
	})
}

// Process implements SPEC_FULL.md §4.9's process_event algorithm: an
// idempotency check, a transactional insert, best-effort handler fan-out,
// a status transition to processed, and an idempotency record. A handler
// failure is recorded per-handler and never aborts the event's own
// transition to processed.
func (p *Processor) Process(ctx context.Context, e *eventpkg.Event) error {
	start := time.Now()
	priority := strconv.Itoa(e.Priority)
	source := string(e.Source)

	// The ingest façade (C8) writes idempotency:<key> = event_id the
	// moment it accepts an event, before this Processor ever sees it off
	// the adapter. A record matching e.ID is therefore that original
	// claim, not a duplicate; only a *different* existing event_id means
	// some other request already owns the key.
	existingID, err := p.lookupIdempotency(e.IdempotencyKey)
	if err != nil {
		return err
	}
	if existingID != "" && existingID != e.ID {
		metrics.RecordIdempotencyDuplicate()
		metrics.RecordEventProcessed(string(e.EventType), priority, source, "duplicate", time.Since(start))
		logging.Debug().Str("event_id", e.ID).Str("idempotency_key", e.IdempotencyKey).
			Str("existing_event_id", existingID).Msg("skipping duplicate event")
		return nil
	}

	e.Transition(eventpkg.StatusProcessing)
	if err := p.store.Insert(ctx, e); err != nil {
		if errors.Is(err, eventstore.ErrDuplicateIdempotencyKey) {
			metrics.RecordIdempotencyDuplicate()
			metrics.RecordEventProcessed(string(e.EventType), priority, source, "duplicate", time.Since(start))
			return nil
		}
		metrics.RecordEventProcessed(string(e.EventType), priority, source, "failed", time.Since(start))
		return err
	}

	p.dispatch(ctx, e)

	e.Transition(eventpkg.StatusProcessed)
	processedAt := sql.NullTime{Time: *e.ProcessedAt, Valid: true}
	if err := p.store.UpdateStatus(ctx, e.ID, eventpkg.StatusProcessed, e.RetryCount, e.LastError, &processedAt); err != nil {
		metrics.RecordEventProcessed(string(e.EventType), priority, source, "failed", time.Since(start))
		return err
	}

	if err := p.recordIdempotency(e.IdempotencyKey, e.ID); err != nil {
		logging.Error().Err(err).Str("event_id", e.ID).Msg("failed to record idempotency key")
	}

	metrics.RecordEventProcessed(string(e.EventType), priority, source, "processed", time.Since(start))
	return nil
}

// dispatch runs every handler registered for e.EventType in order,
// logging and recording each failure without stopping the remaining
// handlers or the event's own transition to processed.
func (p *Processor) dispatch(ctx context.Context, e *eventpkg.Event) {
	for _, h := range p.registry.For(e.EventType) {
		if err := h.fn(ctx, e); err != nil {
			metrics.RecordHandlerError(string(e.EventType), h.name)
			logging.Error().Err(err).Str("event_id", e.ID).Str("handler", h.name).
				Msg("handler returned error")
		}
	}
}
