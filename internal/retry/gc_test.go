// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package retry

import (
	"context"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

func newTestGCDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("badger.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGCLoop_StartStopLifecycle(t *testing.T) {
	db := newTestGCDB(t)
	g := NewGCLoop(db, time.Hour)

	if g.IsRunning() {
		t.Fatal("IsRunning() = true before Start")
	}

	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !g.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}

	g.Stop()
	if g.IsRunning() {
		t.Fatal("IsRunning() = true after Stop")
	}
}

func TestGCLoop_StartIsIdempotent(t *testing.T) {
	db := newTestGCDB(t)
	g := NewGCLoop(db, time.Hour)

	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	g.Stop()
}

func TestGCLoop_RunOnceReturnsOnInMemoryGCError(t *testing.T) {
	db := newTestGCDB(t)
	g := NewGCLoop(db, time.Hour)

	// Badger refuses value-log GC on an in-memory DB with an error other
	// than ErrNoRewrite; runOnce must log it and return without blocking
	// or panicking.
	g.runOnce()
}

func TestGCLoop_DefaultIntervalAppliedWhenNonPositive(t *testing.T) {
	db := newTestGCDB(t)
	g := NewGCLoop(db, 0)
	if g.interval != time.Hour {
		t.Errorf("interval = %v, want 1h default", g.interval)
	}
}
