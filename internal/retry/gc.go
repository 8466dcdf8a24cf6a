// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package retry

import (
	"context"
	"errors"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/cartographus/internal/logging"
)

// gcRatio is the space-reclaim threshold RunValueLogGC uses: a value log
// file is rewritten once this fraction of it is stale.
const gcRatio = 0.5

// GCLoop periodically compacts the Badger value log the idempotency
// records, retry counters, dead-letter KV backup, and time-wheel entries
// all share. It carries the same Start/Stop/IsRunning lifecycle as the
// teacher's WAL Compactor, applied to the ingestion pipeline's shared
// key-value store instead of a write-ahead log.
type GCLoop struct {
	db       *badger.DB
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewGCLoop builds a GCLoop over db, running every interval. A
// non-positive interval falls back to one hour.
func NewGCLoop(db *badger.DB, interval time.Duration) *GCLoop {
	if interval <= 0 {
		interval = time.Hour
	}
	return &GCLoop{db: db, interval: interval}
}

// Start begins the background GC loop. It satisfies
// internal/supervisor/services.StartStopper.
func (g *GCLoop) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil
	}
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.running = true
	g.mu.Unlock()

	g.wg.Add(1)
	go g.run()

	logging.Info().Dur("interval", g.interval).Msg("badger value-log GC loop started")
	return nil
}

// Stop halts the loop and waits for the in-flight run, if any, to finish.
func (g *GCLoop) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.cancel()
	g.running = false
	g.mu.Unlock()

	g.wg.Wait()
	logging.Info().Msg("badger value-log GC loop stopped")
}

// IsRunning reports whether the loop is active.
func (g *GCLoop) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

func (g *GCLoop) run() {
	defer g.wg.Done()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			g.runOnce()
		}
	}
}

// runOnce calls RunValueLogGC repeatedly until it reports there is
// nothing left to rewrite, per Badger's documented GC loop pattern.
func (g *GCLoop) runOnce() {
	for {
		err := g.db.RunValueLogGC(gcRatio)
		if err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				logging.Error().Err(err).Msg("badger value-log GC error")
			}
			return
		}
	}
}
