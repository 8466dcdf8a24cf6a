// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package deadletter

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/broker"
	"github.com/tomtom215/cartographus/internal/cache"
	eventpkg "github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/metrics"
)

const (
	backupSeqKey = "dlq:backup:seq"
	backupPrefix = "dlq:backup:entry:"
	wheelPrefix  = "dlq:wheel:"
)

// Publisher is the subset of *broker.Publisher the manager needs: Publish
// to republish an event onto its originating priority subject, PublishRaw
// to deliver onto an arbitrary subject (the dead-letter stream) with
// extra headers.
type Publisher interface {
	Publish(ctx context.Context, e *eventpkg.Event) error
	PublishRaw(ctx context.Context, subject string, e *eventpkg.Event, extraHeaders map[string]string) error
}

// backupRecord is the JSON value stored in both the KV backup list and the
// file fallback.
type backupRecord struct {
	Event  *eventpkg.Event `json:"event"`
	Reason string          `json:"reason"`
	At     time.Time       `json:"at"`
}

// wheelRecord is the JSON value persisted per time-wheel entry, keyed by
// event ID, so the wheel survives a process restart.
type wheelRecord struct {
	Event *eventpkg.Event `json:"event"`
	DueAt time.Time       `json:"due_at"`
}

// Manager implements the cascading dead-letter path from SPEC_FULL.md
// §4.7: send_to_dlq, send_to_kv_backup, send_to_retry_queue, and
// restore_from_backup. It satisfies internal/broker.DeadLetterSink's Send
// method; internal/streamqueue's consumer does not use it and writes to its
// own Redis dead-letter stream.
type Manager struct {
	db  *badger.DB
	pub Publisher
	cfg Config

	wheel *cache.MinHeap[*eventpkg.Event]

	fileMu sync.Mutex
}

// NewManager builds a Manager backed by db for the KV backup list and
// time-wheel persistence, and pub for delivery onto the dead-letter stream
// and for redelivery onto originating subjects.
func NewManager(db *badger.DB, pub Publisher, cfg Config) *Manager {
	return &Manager{
		db:    db,
		pub:   pub,
		cfg:   cfg,
		wheel: cache.NewMinHeap[*eventpkg.Event](0),
	}
}

// Send implements broker.DeadLetterSink. It cascades through the broker's
// EVENTS_DEAD_LETTER stream, the KV backup list, and the backup file, in
// that order, stopping at the first sink that accepts the event.
func (m *Manager) Send(ctx context.Context, e *eventpkg.Event, reason string) error {
	headers := map[string]string{
		"x-original-queue": string(e.Source),
		"x-error":          reason,
		"x-retry-count":    strconv.Itoa(e.RetryCount),
	}

	if err := m.pub.PublishRaw(ctx, broker.SubjectDeadLetter, e, headers); err == nil {
		metrics.RecordDLQPermanentFailure(string(e.EventType))
		return nil
	}

	if err := m.sendToKVBackup(e, reason); err == nil {
		metrics.RecordDLQPermanentFailure(string(e.EventType))
		return nil
	}

	if err := m.appendToFileBackup(e, reason); err != nil {
		return fmt.Errorf("deadletter: all sinks failed, file backup: %w", err)
	}
	metrics.RecordDLQPermanentFailure(string(e.EventType))
	return nil
}

// sendToKVBackup appends e to the Badger-backed backup list, trimming it
// to cfg.BackupListMax entries, oldest first.
func (m *Manager) sendToKVBackup(e *eventpkg.Event, reason string) error {
	data, err := json.Marshal(backupRecord{Event: e, Reason: reason, At: time.Now().UTC()})
	if err != nil {
		return err
	}

	return m.db.Update(func(txn *badger.Txn) error {
		seq, err := nextBackupSeq(txn)
		if err != nil {
			return err
		}
		if err := txn.SetEntry(badger.NewEntry(backupKey(seq), data)); err != nil {
			return err
		}
		return trimBackup(txn, m.cfg.BackupListMax)
	})
}

func nextBackupSeq(txn *badger.Txn) (uint64, error) {
	var seq uint64
	item, err := txn.Get([]byte(backupSeqKey))
	if err == nil {
		if verr := item.Value(func(v []byte) error {
			seq = binary.BigEndian.Uint64(v)
			return nil
		}); verr != nil {
			return 0, verr
		}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return 0, err
	}

	seq++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	if err := txn.SetEntry(badger.NewEntry([]byte(backupSeqKey), buf)); err != nil {
		return 0, err
	}
	return seq, nil
}

func backupKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", backupPrefix, seq))
}

// trimBackup deletes the oldest entries once the list exceeds max. Keys
// are zero-padded sequence numbers so lexicographic iteration order is
// also insertion order.
func trimBackup(txn *badger.Txn, max int) error {
	if max <= 0 {
		return nil
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(backupPrefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	if len(keys) <= max {
		return nil
	}
	for _, k := range keys[:len(keys)-max] {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// appendToFileBackup is the final fallback when both the broker and the
// KV backup list are unavailable.
func (m *Manager) appendToFileBackup(e *eventpkg.Event, reason string) error {
	m.fileMu.Lock()
	defer m.fileMu.Unlock()

	f, err := os.OpenFile(m.cfg.FileBackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(backupRecord{Event: e, Reason: reason, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

// ScheduleRetry pushes e onto the time-wheel with due_at = now + delay,
// persisting the entry so it survives a restart before the Sweeper ever
// sees it.
func (m *Manager) ScheduleRetry(e *eventpkg.Event, delay time.Duration) error {
	due := time.Now().UTC().Add(delay)
	if err := m.persistWheelEntry(e, due); err != nil {
		return err
	}
	m.wheel.Push(e.ID, e, due)
	return nil
}

func (m *Manager) persistWheelEntry(e *eventpkg.Event, due time.Time) error {
	data, err := json.Marshal(wheelRecord{Event: e, DueAt: due})
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(wheelKey(e.ID), data))
	})
}

func (m *Manager) deleteWheelEntry(eventID string) error {
	return m.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(wheelKey(eventID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func wheelKey(eventID string) []byte {
	return []byte(wheelPrefix + eventID)
}

// LoadWheel repopulates the in-memory time-wheel from its Badger snapshot,
// restoring any entries scheduled before a restart.
func (m *Manager) LoadWheel(ctx context.Context) error {
	return m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(wheelPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var rec wheelRecord
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &rec)
			}); err != nil {
				return err
			}
			m.wheel.Push(rec.Event.ID, rec.Event, rec.DueAt)
		}
		return nil
	})
}

// popOldestBackupKey returns the oldest entry in the KV backup list
// without removing it, or a nil key if the list is empty.
func (m *Manager) popOldestBackupKey() ([]byte, *backupRecord, error) {
	var key []byte
	var rec backupRecord
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(backupPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(opts.Prefix)
		if !it.ValidForPrefix(opts.Prefix) {
			return nil
		}
		item := it.Item()
		key = item.KeyCopy(nil)
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &rec)
		})
	})
	if err != nil || key == nil {
		return nil, nil, err
	}
	return key, &rec, nil
}

func (m *Manager) deleteBackupKey(key []byte) error {
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// RestoreFromBackup pops up to cfg.RestoreBatch entries from the KV backup
// list, oldest first, and republishes each onto the dead-letter stream. An
// entry is only removed from the list once its republish succeeds, so a
// broker outage mid-drain leaves the remainder intact for the next call.
func (m *Manager) RestoreFromBackup(ctx context.Context) (int, error) {
	restored := 0
	for restored < m.cfg.RestoreBatch {
		key, rec, err := m.popOldestBackupKey()
		if err != nil {
			return restored, err
		}
		if key == nil {
			break
		}

		headers := map[string]string{
			"x-original-queue": string(rec.Event.Source),
			"x-error":          rec.Reason,
			"x-retry-count":    strconv.Itoa(rec.Event.RetryCount),
		}
		if err := m.pub.PublishRaw(ctx, broker.SubjectDeadLetter, rec.Event, headers); err != nil {
			return restored, err
		}
		if err := m.deleteBackupKey(key); err != nil {
			return restored, err
		}
		restored++
	}
	return restored, nil
}

// Stats reports current depth of the two stores the manager keeps in
// Badger and memory: the time-wheel and the KV backup list.
type Stats struct {
	RetryQueueDepth int
	KVBackupCount   int64
}

// Stats returns current counts for the time-wheel and the KV backup list.
func (m *Manager) Stats() (Stats, error) {
	var kvCount int64
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(backupPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			kvCount++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return Stats{RetryQueueDepth: m.wheel.Len(), KVBackupCount: kvCount}, nil
}
