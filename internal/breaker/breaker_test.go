// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package breaker

import (
	"errors"
	"testing"
	"time"
)

func testConfig(name string) Config {
	cfg := DefaultConfig(name)
	cfg.FailureThreshold = 2
	cfg.SuccessThreshold = 1
	cfg.OpenTimeout = 10 * time.Millisecond
	cfg.HalfOpenTimeout = 10 * time.Millisecond
	return cfg
}

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b := New(testConfig("TestBreaker_TripsAfterConsecutiveFailures"))
	failing := func() (interface{}, error) { return nil, errors.New("boom") }

	for i := 0; i < 2; i++ {
		if _, err := b.Execute(failing); err == nil {
			t.Fatalf("call %d: expected failure to propagate", i)
		}
	}

	if b.State() != "open" {
		t.Errorf("State() = %q, want open after %d consecutive failures", b.State(), 2)
	}
	if b.IsAvailable() {
		t.Error("IsAvailable() = true, want false while open")
	}
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	b := New(testConfig("TestBreaker_RecoversThroughHalfOpen"))
	failing := func() (interface{}, error) { return nil, errors.New("boom") }
	succeeding := func() (interface{}, error) { return "ok", nil }

	for i := 0; i < 2; i++ {
		_, _ = b.Execute(failing)
	}
	if b.State() != "open" {
		t.Fatalf("State() = %q, want open", b.State())
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := b.Execute(succeeding); err != nil {
		t.Fatalf("Execute() during half-open trial: %v", err)
	}
	if b.State() != "closed" {
		t.Errorf("State() = %q, want closed after successful half-open trial", b.State())
	}
}

func TestBreaker_ForceOpenShortCircuits(t *testing.T) {
	b := New(testConfig("TestBreaker_ForceOpenShortCircuits"))
	b.ForceOpen("operator maintenance window")

	called := false
	_, err := b.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})

	if called {
		t.Error("Execute() called fn while forced open")
	}
	if !errors.Is(err, ErrForcedOpen) {
		t.Errorf("Execute() error = %v, want ErrForcedOpen", err)
	}
	if b.IsAvailable() {
		t.Error("IsAvailable() = true, want false while forced open")
	}
	if b.ForcedReason() != "operator maintenance window" {
		t.Errorf("ForcedReason() = %q", b.ForcedReason())
	}
}

func TestBreaker_ForceCloseBypassesOpenState(t *testing.T) {
	b := New(testConfig("TestBreaker_ForceCloseBypassesOpenState"))
	failing := func() (interface{}, error) { return nil, errors.New("boom") }
	for i := 0; i < 2; i++ {
		_, _ = b.Execute(failing)
	}
	if b.State() != "open" {
		t.Fatalf("State() = %q, want open", b.State())
	}

	b.ForceClose("manual override")
	if !b.IsAvailable() {
		t.Error("IsAvailable() = false, want true while forced closed")
	}

	called := false
	_, err := b.Execute(func() (interface{}, error) {
		called = true
		return "ok", nil
	})
	if err != nil || !called {
		t.Errorf("Execute() during forced-close = (called=%v, err=%v), want (true, nil)", called, err)
	}
}

func TestBreaker_ResetClearsForcedState(t *testing.T) {
	b := New(testConfig("TestBreaker_ResetClearsForcedState"))
	b.ForceOpen("test")
	b.Reset()

	if !b.IsAvailable() {
		t.Error("IsAvailable() = false, want true after Reset from forced-open on a fresh breaker")
	}
	if b.ForcedReason() != "" {
		t.Errorf("ForcedReason() = %q, want empty after Reset", b.ForcedReason())
	}
}
