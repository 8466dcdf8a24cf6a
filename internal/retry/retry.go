// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package retry

import (
	"errors"
	"math"
	"math/rand"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/metrics"
)

// counterTTL is how long an attempt counter survives in Badger once
// written, per SPEC_FULL.md §4.3's "retry:count:<event_id>, TTL 24h".
const counterTTL = 24 * time.Hour

// Config holds the backoff and retry-budget parameters. Defaults per
// SPEC_FULL.md §4.3: Initial=1s, Backoff=2, MaxDelay=60s, MaxRetries=5,
// JitterFraction=0.2.
type Config struct {
	Initial        time.Duration
	Backoff        float64
	MaxDelay       time.Duration
	MaxRetries     int
	JitterFraction float64
}

// DefaultConfig returns the SPEC_FULL.md §4.3 defaults.
func DefaultConfig() Config {
	return Config{
		Initial:        time.Second,
		Backoff:        2.0,
		MaxDelay:       60 * time.Second,
		MaxRetries:     5,
		JitterFraction: 0.2,
	}
}

// counterRecord is the JSON value stored under each retry:count:<id> key.
type counterRecord struct {
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Manager tracks attempt counts in Badger and computes backoff delays. One
// Manager is shared by the broker and stream consumers.
type Manager struct {
	db     *badger.DB
	cfg    Config
	rng    *rand.Rand
	prefix []byte
}

// New builds a Manager backed by db. seed makes the jitter deterministic
// for tests; production callers should pass time.Now().UnixNano().
func New(db *badger.DB, cfg Config, seed int64) *Manager {
	return &Manager{
		db:     db,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
		prefix: []byte("retry:count:"),
	}
}

func (m *Manager) key(eventID string) []byte {
	return append(append([]byte{}, m.prefix...), []byte(eventID)...)
}

// attempts returns the current attempt count for eventID, or 0 if no
// counter has been written yet.
func (m *Manager) attempts(eventID string) (int, error) {
	var rec counterRecord
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(m.key(eventID))
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
		return 0, err
	}
	return rec.Count, nil
}

// ShouldRetry reports whether eventID has remaining retry budget.
func (m *Manager) ShouldRetry(eventID string) (bool, error) {
	count, err := m.attempts(eventID)
	if err != nil {
		return false, err
	}
	return count < m.cfg.MaxRetries, nil
}

// Increment bumps eventID's attempt counter and returns the new count.
func (m *Manager) Increment(eventID, eventType string) (int, error) {
	var newCount int
	err := m.db.Update(func(txn *badger.Txn) error {
		count, err := m.attemptsInTxn(txn, eventID)
		if err != nil {
			return err
		}
		newCount = count + 1

		data, err := json.Marshal(counterRecord{Count: newCount, UpdatedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		entry := badger.NewEntry(m.key(eventID), data).WithTTL(counterTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordRetryAttempt(eventType)
	if newCount >= m.cfg.MaxRetries {
		metrics.RecordRetryExhausted(eventType)
	}
	return newCount, nil
}

func (m *Manager) attemptsInTxn(txn *badger.Txn, eventID string) (int, error) {
	item, err := txn.Get(m.key(eventID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var rec counterRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec.Count, err
}

// Clear removes eventID's attempt counter, called once an event processes
// successfully after having been retried.
func (m *Manager) Clear(eventID string) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(m.key(eventID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	return err
}

// Delay returns the backoff duration before the given attempt number
// (0-indexed), exponential with ±JitterFraction uniform jitter, capped at
// MaxDelay.
func (m *Manager) Delay(attempt int) time.Duration {
	backoff := float64(m.cfg.Initial) * math.Pow(m.cfg.Backoff, float64(attempt))
	if backoff > float64(m.cfg.MaxDelay) {
		backoff = float64(m.cfg.MaxDelay)
	}

	jitter := backoff * m.cfg.JitterFraction * (m.rng.Float64()*2 - 1)
	delay := backoff + jitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
