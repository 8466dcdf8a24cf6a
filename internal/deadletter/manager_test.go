// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package deadletter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	eventpkg "github.com/tomtom215/cartographus/internal/event"
)

// fakePublisher is a test double for Publisher, letting tests force
// failure on either method and inspect what was sent.
type fakePublisher struct {
	mu            sync.Mutex
	publishErr    error
	publishRawErr error
	published     []*eventpkg.Event
	publishedRaw  []*eventpkg.Event
}

func (f *fakePublisher) Publish(_ context.Context, e *eventpkg.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, e)
	return nil
}

func (f *fakePublisher) PublishRaw(_ context.Context, _ string, e *eventpkg.Event, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishRawErr != nil {
		return f.publishRawErr
	}
	f.publishedRaw = append(f.publishedRaw, e)
	return nil
}

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("badger.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testEvent(id string) *eventpkg.Event {
	return &eventpkg.Event{
		ID:        id,
		UserID:    "user-1",
		EventType: eventpkg.TypeView,
		Timestamp: time.Now().UTC(),
		Source:    eventpkg.SourceBroker,
	}
}

func TestManager_Send_DeadLetterStreamSucceeds(t *testing.T) {
	db := newTestDB(t)
	pub := &fakePublisher{}
	m := NewManager(db, pub, DefaultConfig())

	if err := m.Send(context.Background(), testEvent("evt-1"), "handler_error"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(pub.publishedRaw) != 1 {
		t.Fatalf("publishedRaw = %d, want 1", len(pub.publishedRaw))
	}
}

func TestManager_Send_FallsBackToKVBackup(t *testing.T) {
	db := newTestDB(t)
	pub := &fakePublisher{publishRawErr: errors.New("broker unavailable")}
	m := NewManager(db, pub, DefaultConfig())

	if err := m.Send(context.Background(), testEvent("evt-2"), "handler_error"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	stats, err := m.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.KVBackupCount != 1 {
		t.Errorf("KVBackupCount = %d, want 1", stats.KVBackupCount)
	}
}

func TestManager_Send_FallsBackToFile(t *testing.T) {
	db := newTestDB(t)
	pub := &fakePublisher{publishRawErr: errors.New("broker unavailable")}
	cfg := DefaultConfig()
	cfg.FileBackupPath = filepath.Join(t.TempDir(), "dlq_backup.log")
	m := NewManager(db, pub, cfg)
	_ = db.Close() // force the KV backup write to fail too

	if err := m.Send(context.Background(), testEvent("evt-3"), "handler_error"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	data, err := os.ReadFile(cfg.FileBackupPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("file backup is empty, want one JSON line")
	}
}

func TestManager_KVBackup_TrimsToMax(t *testing.T) {
	db := newTestDB(t)
	pub := &fakePublisher{publishRawErr: errors.New("broker unavailable")}
	cfg := DefaultConfig()
	cfg.BackupListMax = 3
	m := NewManager(db, pub, cfg)

	for i := 0; i < 5; i++ {
		if err := m.sendToKVBackup(testEvent("evt"), "reason"); err != nil {
			t.Fatalf("sendToKVBackup() error = %v", err)
		}
	}

	stats, err := m.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.KVBackupCount != 3 {
		t.Errorf("KVBackupCount = %d, want 3", stats.KVBackupCount)
	}
}

func TestManager_RestoreFromBackup(t *testing.T) {
	db := newTestDB(t)
	pub := &fakePublisher{}
	m := NewManager(db, pub, DefaultConfig())

	for i := 0; i < 3; i++ {
		if err := m.sendToKVBackup(testEvent("evt"), "reason"); err != nil {
			t.Fatalf("sendToKVBackup() error = %v", err)
		}
	}

	restored, err := m.RestoreFromBackup(context.Background())
	if err != nil {
		t.Fatalf("RestoreFromBackup() error = %v", err)
	}
	if restored != 3 {
		t.Errorf("restored = %d, want 3", restored)
	}

	stats, err := m.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.KVBackupCount != 0 {
		t.Errorf("KVBackupCount after restore = %d, want 0", stats.KVBackupCount)
	}
	if len(pub.publishedRaw) != 3 {
		t.Errorf("publishedRaw = %d, want 3", len(pub.publishedRaw))
	}
}

func TestManager_RestoreFromBackup_StopsOnFirstFailure(t *testing.T) {
	db := newTestDB(t)
	pub := &fakePublisher{}
	m := NewManager(db, pub, DefaultConfig())

	if err := m.sendToKVBackup(testEvent("evt"), "reason"); err != nil {
		t.Fatalf("sendToKVBackup() error = %v", err)
	}

	pub.publishRawErr = errors.New("broker still down")
	restored, err := m.RestoreFromBackup(context.Background())
	if err == nil {
		t.Fatal("RestoreFromBackup() error = nil, want non-nil")
	}
	if restored != 0 {
		t.Errorf("restored = %d, want 0", restored)
	}

	stats, err := m.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.KVBackupCount != 1 {
		t.Errorf("KVBackupCount = %d, want 1 (entry preserved)", stats.KVBackupCount)
	}
}

func TestManager_ScheduleRetryAndLoadWheel(t *testing.T) {
	db := newTestDB(t)
	pub := &fakePublisher{}
	m := NewManager(db, pub, DefaultConfig())

	if err := m.ScheduleRetry(testEvent("evt-1"), 5*time.Minute); err != nil {
		t.Fatalf("ScheduleRetry() error = %v", err)
	}

	stats, err := m.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.RetryQueueDepth != 1 {
		t.Fatalf("RetryQueueDepth = %d, want 1", stats.RetryQueueDepth)
	}

	// A fresh manager over the same DB should recover the wheel entry.
	m2 := NewManager(db, pub, DefaultConfig())
	if err := m2.LoadWheel(context.Background()); err != nil {
		t.Fatalf("LoadWheel() error = %v", err)
	}
	stats2, err := m2.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats2.RetryQueueDepth != 1 {
		t.Errorf("RetryQueueDepth after LoadWheel = %d, want 1", stats2.RetryQueueDepth)
	}
}
