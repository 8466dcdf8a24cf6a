// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockBroker simulates the event broker for testing. Implements the
// BrokerRunner interface defined in broker_service.go.
type mockBroker struct {
	running  atomic.Bool
	started  atomic.Bool
	startErr error
}

func (m *mockBroker) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started.Store(true)
	m.running.Store(true)
	return nil
}

func (m *mockBroker) Shutdown(ctx context.Context) {
	m.running.Store(false)
}

func (m *mockBroker) IsRunning() bool {
	return m.running.Load()
}

func TestBrokerService(t *testing.T) {
	t.Run("implements suture.Service interface", func(t *testing.T) {
		var _ suture.Service = (*BrokerService)(nil)
	})

	t.Run("starts and stops the broker", func(t *testing.T) {
		mock := &mockBroker{}
		svc := NewBrokerService(mock)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- svc.Serve(ctx)
		}()

		var started bool
		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			if mock.started.Load() {
				started = true
				break
			}
		}
		if !started {
			t.Fatal("broker should have been started")
		}

		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("service did not stop in time")
		}

		if mock.IsRunning() {
			t.Error("broker should have been stopped")
		}
	})

	t.Run("propagates start error for restart", func(t *testing.T) {
		mock := &mockBroker{startErr: errors.New("nats connection refused")}
		svc := NewBrokerService(mock)

		if err := svc.Serve(context.Background()); err == nil {
			t.Error("expected error to be propagated")
		}
	})

	t.Run("String returns service name", func(t *testing.T) {
		svc := NewBrokerService(&mockBroker{})
		if svc.String() != "event-broker" {
			t.Errorf("expected 'event-broker', got %q", svc.String())
		}
	})
}
