// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package breaker

import (
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cartographus/internal/metrics"
)

// ErrForcedOpen is returned by Execute when the breaker has been put into
// the forced-open state by an operator.
var ErrForcedOpen = errors.New("breaker: forced open")

// Config configures one resource's breaker. Defaults for queue resources
// (broker, stream) use a higher FailureThreshold than other resources.
type Config struct {
	// Name identifies the guarded resource in logs, metrics, and
	// gobreaker's own callbacks.
	Name string
	// FailureThreshold is the number of consecutive failures in CLOSED
	// that trips the breaker to OPEN. Default 5, or 10 for queues.
	FailureThreshold uint32
	// SuccessThreshold is the number of consecutive successes in
	// HALF_OPEN required to close the breaker. Default 3, or 5 for
	// queues.
	SuccessThreshold uint32
	// OpenTimeout is how long the breaker stays OPEN before allowing a
	// HALF_OPEN trial. Default 60s.
	OpenTimeout time.Duration
	// HalfOpenTimeout is passed to gobreaker as Settings.Interval: the
	// period after which a CLOSED breaker clears its failure/success
	// counts. It does not limit how long HALF_OPEN lasts. Default 30s.
	HalfOpenTimeout time.Duration
}

// DefaultConfig returns the non-queue resource defaults from SPEC_FULL.md
// §4.2: failure_threshold=5, success_threshold=3, open_timeout_s=60,
// half_open_timeout_s=30.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 3,
		OpenTimeout:      60 * time.Second,
		HalfOpenTimeout:  30 * time.Second,
	}
}

// QueueConfig returns the queue-resource defaults: failure_threshold=10,
// success_threshold=5, same timeouts as DefaultConfig.
func QueueConfig(name string) Config {
	cfg := DefaultConfig(name)
	cfg.FailureThreshold = 10
	cfg.SuccessThreshold = 5
	return cfg
}

// forcedState is the operator-controlled override layered on top of
// gobreaker's own CLOSED/OPEN/HALF_OPEN state machine.
type forcedState int

const (
	forcedNone forcedState = iota
	forcedOpen
	forcedClosed
)

// Breaker guards one external resource. The underlying gobreaker
// CircuitBreaker owns the CLOSED/OPEN/HALF_OPEN transitions; Breaker adds
// the force_open/force_close escape hatches and an IsAvailable query that
// gobreaker doesn't expose directly.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[interface{}]

	mu           sync.RWMutex
	forced       forcedState
	forcedReason string
}

// New builds a Breaker for cfg, reporting every CLOSED/OPEN/HALF_OPEN
// transition gobreaker makes to internal/metrics.
func New(cfg Config) *Breaker {
	b := &Breaker{name: cfg.Name}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.SuccessThreshold,
		Interval:    cfg.HalfOpenTimeout,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, stateLabel(to))
		},
	}
	b.cb = gobreaker.NewCircuitBreaker[interface{}](settings)
	return b
}

// stateLabel maps a gobreaker.State to the label used by
// internal/metrics.BreakerStateGauge and the DLQ/router string
// comparisons elsewhere in the pipeline.
func stateLabel(s gobreaker.State) string {
	switch s {
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Execute runs fn through the breaker. When forced open, fn is never
// called and ErrForcedOpen is returned. When forced closed, fn is called
// directly, bypassing gobreaker's own state machine.
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	b.mu.RLock()
	forced := b.forced
	b.mu.RUnlock()

	switch forced {
	case forcedOpen:
		return nil, ErrForcedOpen
	case forcedClosed:
		return fn()
	default:
		return b.cb.Execute(fn)
	}
}

// IsAvailable reports whether Execute would currently attempt fn rather
// than short-circuiting. Forced state takes precedence over gobreaker's
// own computed state.
func (b *Breaker) IsAvailable() bool {
	b.mu.RLock()
	forced := b.forced
	b.mu.RUnlock()

	switch forced {
	case forcedOpen:
		return false
	case forcedClosed:
		return true
	default:
		return b.cb.State() != gobreaker.StateOpen
	}
}

// State returns the current breaker state as a metric/log label,
// reflecting any forced override.
func (b *Breaker) State() string {
	b.mu.RLock()
	forced := b.forced
	b.mu.RUnlock()

	switch forced {
	case forcedOpen:
		return "open"
	case forcedClosed:
		return "closed"
	default:
		return stateLabel(b.cb.State())
	}
}

// ForceOpen puts the breaker into the forced-open state until ForceClose
// or Reset is called. reason is logged by the caller.
func (b *Breaker) ForceOpen(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forced = forcedOpen
	b.forcedReason = reason
	metrics.RecordBreakerTransition(b.name, "open")
}

// ForceClose puts the breaker into the forced-closed state until
// ForceOpen or Reset is called. reason is logged by the caller.
func (b *Breaker) ForceClose(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forced = forcedClosed
	b.forcedReason = reason
	metrics.RecordBreakerTransition(b.name, "closed")
}

// Reset clears any forced override, returning control to gobreaker's own
// state machine.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forced = forcedNone
	b.forcedReason = ""
}

// ForcedReason returns the reason passed to the most recent ForceOpen or
// ForceClose call, or "" if the breaker is not currently forced.
func (b *Breaker) ForcedReason() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.forcedReason
}
