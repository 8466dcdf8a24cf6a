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

// mockStartStopper simulates the retry coordinator / dead-letter sweeper
// for testing. Implements StartStopper.
type mockStartStopper struct {
	running  atomic.Bool
	started  atomic.Bool
	startErr error
}

func (m *mockStartStopper) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started.Store(true)
	m.running.Store(true)
	return nil
}

func (m *mockStartStopper) Stop() {
	m.running.Store(false)
}

func (m *mockStartStopper) IsRunning() bool {
	return m.running.Load()
}

func waitStarted(t *testing.T, started *atomic.Bool) {
	t.Helper()
	for i := 0; i < 10; i++ {
		time.Sleep(20 * time.Millisecond)
		if started.Load() {
			return
		}
	}
	t.Fatal("component should have been started")
}

func TestRetryCoordinatorService(t *testing.T) {
	t.Run("implements suture.Service interface", func(t *testing.T) {
		var _ suture.Service = (*RetryCoordinatorService)(nil)
	})

	t.Run("starts and stops on cancellation", func(t *testing.T) {
		mock := &mockStartStopper{}
		svc := NewRetryCoordinatorService(mock)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		waitStarted(t, &mock.started)
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
			t.Error("coordinator should have been stopped")
		}
	})

	t.Run("propagates start error", func(t *testing.T) {
		mock := &mockStartStopper{startErr: errors.New("badger open failed")}
		svc := NewRetryCoordinatorService(mock)

		if err := svc.Serve(context.Background()); err == nil {
			t.Error("expected error to be propagated")
		}
	})

	t.Run("String returns service name", func(t *testing.T) {
		svc := NewRetryCoordinatorService(&mockStartStopper{})
		if svc.String() != "retry-gc-loop" {
			t.Errorf("expected 'retry-gc-loop', got %q", svc.String())
		}
	})
}

func TestDeadLetterSweeperService(t *testing.T) {
	t.Run("implements suture.Service interface", func(t *testing.T) {
		var _ suture.Service = (*DeadLetterSweeperService)(nil)
	})

	t.Run("starts and stops on cancellation", func(t *testing.T) {
		mock := &mockStartStopper{}
		svc := NewDeadLetterSweeperService(mock)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		waitStarted(t, &mock.started)
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
			t.Error("sweeper should have been stopped")
		}
	})

	t.Run("propagates start error", func(t *testing.T) {
		mock := &mockStartStopper{startErr: errors.New("disk full")}
		svc := NewDeadLetterSweeperService(mock)

		if err := svc.Serve(context.Background()); err == nil {
			t.Error("expected error to be propagated")
		}
	})

	t.Run("String returns service name", func(t *testing.T) {
		svc := NewDeadLetterSweeperService(&mockStartStopper{})
		if svc.String() != "deadletter-sweeper" {
			t.Errorf("expected 'deadletter-sweeper', got %q", svc.String())
		}
	})
}
