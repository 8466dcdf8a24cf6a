// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import (
	"context"
	"errors"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	eventpkg "github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/eventstore"
)

func newTestIdemDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("badger.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestEventStore(t *testing.T) *eventstore.Store {
	t.Helper()
	s, err := eventstore.Open(eventstore.DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("eventstore.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testIngestEvent(id, idempotencyKey string) *eventpkg.Event {
	return &eventpkg.Event{
		ID:             id,
		UserID:         "user-1",
		EventType:      eventpkg.TypeView,
		Timestamp:      time.Now().UTC().Truncate(time.Microsecond),
		Payload:        map[string]interface{}{"page": "home"},
		Priority:       eventpkg.PriorityLow,
		Source:         eventpkg.SourceAPI,
		Status:         eventpkg.StatusPending,
		IdempotencyKey: idempotencyKey,
	}
}

func TestIngester_IdempotencyRoundTrip(t *testing.T) {
	idem := newTestIdemDB(t)
	store := newTestEventStore(t)
	in := NewIngester(idem, store, nil, nil, nil, nil, DefaultConfig())

	got, err := in.lookupIdempotency("some-key")
	if err != nil {
		t.Fatalf("lookupIdempotency() error = %v", err)
	}
	if got != "" {
		t.Fatalf("lookupIdempotency() on unseen key = %q, want empty", got)
	}

	if err := in.recordIdempotency("some-key", "evt-1"); err != nil {
		t.Fatalf("recordIdempotency() error = %v", err)
	}

	got, err = in.lookupIdempotency("some-key")
	if err != nil {
		t.Fatalf("lookupIdempotency() after record error = %v", err)
	}
	if got != "evt-1" {
		t.Fatalf("lookupIdempotency() = %q, want %q", got, "evt-1")
	}
}

func TestIngester_Ingest_ReplaysCachedAcceptance(t *testing.T) {
	idem := newTestIdemDB(t)
	store := newTestEventStore(t)
	in := NewIngester(idem, store, nil, nil, nil, nil, DefaultConfig())

	if err := in.recordIdempotency("dup-key", "evt-original"); err != nil {
		t.Fatalf("recordIdempotency() error = %v", err)
	}

	e := testIngestEvent("evt-new", "dup-key")
	result, err := in.Ingest(context.Background(), e)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !result.Cached {
		t.Error("Cached = false, want true for a key already claimed")
	}
	if result.EventID != "evt-original" {
		t.Errorf("EventID = %q, want the original claimant's id", result.EventID)
	}
}

func TestIngester_EmergencyPersist_MarksFailedAndPersists(t *testing.T) {
	idem := newTestIdemDB(t)
	store := newTestEventStore(t)
	in := NewIngester(idem, store, nil, nil, nil, nil, DefaultConfig())

	e := testIngestEvent("evt-emergency", "")
	pushErr := errors.New("both adapters refused the event")

	if err := in.emergencyPersist(context.Background(), e, pushErr); err != nil {
		t.Fatalf("emergencyPersist() error = %v", err)
	}

	got, err := store.GetByID(context.Background(), "evt-emergency")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != eventpkg.StatusFailed {
		t.Errorf("Status = %q, want failed", got.Status)
	}
	if got.LastError != pushErr.Error() {
		t.Errorf("LastError = %q, want %q", got.LastError, pushErr.Error())
	}
}

func TestIngester_EmergencyPersist_DuplicateIdempotencyKeyIsNotAnError(t *testing.T) {
	idem := newTestIdemDB(t)
	store := newTestEventStore(t)
	in := NewIngester(idem, store, nil, nil, nil, nil, DefaultConfig())

	key := "shared-key"
	first := testIngestEvent("evt-1", key)
	if err := store.Insert(context.Background(), first); err != nil {
		t.Fatalf("seed Insert() error = %v", err)
	}

	second := testIngestEvent("evt-2", key)
	if err := in.emergencyPersist(context.Background(), second, errors.New("boom")); err != nil {
		t.Fatalf("emergencyPersist() error = %v, want nil on idempotency collision", err)
	}
}
