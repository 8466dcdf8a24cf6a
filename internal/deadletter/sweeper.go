// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package deadletter

import (
	"context"
	"sync"
	"time"
)

// Sweeper drains Manager's time-wheel on a fixed interval, republishing
// any entry whose due_at has passed back onto its originating subject.
// This is the DelayedRedeliveryLoop from SPEC_FULL.md §4.7: JetStream has
// no native delayed-redelivery primitive, so the delay is enforced here
// instead of by the broker.
type Sweeper struct {
	manager  *Manager
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSweeper builds a Sweeper bound to manager's time-wheel.
func NewSweeper(manager *Manager) *Sweeper {
	return &Sweeper{manager: manager, interval: manager.cfg.SweepInterval}
}

// Start implements the StartStopper interface internal/supervisor/services
// wraps as a suture.Service. It is safe to call more than once; subsequent
// calls while already running are no-ops.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	if err := s.manager.LoadWheel(ctx); err != nil {
		return err
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(sweepCtx)
	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce pops every wheel entry due by now and republishes it onto its
// originating subject. A republish failure cascades the event through
// Manager.Send rather than leaving it stranded off the wheel.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	due := s.manager.wheel.PopBefore(time.Now().UTC())
	for _, entry := range due {
		e := entry.Value
		if err := s.manager.pub.Publish(ctx, e); err != nil {
			_ = s.manager.Send(ctx, e, "retry_republish_failed")
		}
		_ = s.manager.deleteWheelEntry(e.ID)
	}
}

// Stop signals the sweep loop to exit and blocks until it has.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
}

// IsRunning reports whether the sweep loop is currently active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
