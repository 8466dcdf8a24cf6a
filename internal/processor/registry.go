// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package processor

import (
	"context"
	"sync"

	eventpkg "github.com/tomtom215/cartographus/internal/event"
)

// Handler reacts to one event. A handler error is recorded and does not
// abort the event's transaction (§4.9 step 2b); it never blocks the event
// from being marked processed under the default policy.
type Handler func(ctx context.Context, e *eventpkg.Event) error

// handlerEntry pairs a Handler with the name metrics/logging attribute
// errors to.
type handlerEntry struct {
	name string
	fn   Handler
}

// Registry maps event types to an ordered list of handlers. An event type
// with no registered handlers dispatches to nothing, which is valid.
type Registry struct {
	mu       sync.RWMutex
	handlers map[eventpkg.Type][]handlerEntry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[eventpkg.Type][]handlerEntry)}
}

// Register appends fn to the ordered list of handlers for t, tagged with
// name for error attribution.
func (r *Registry) Register(t eventpkg.Type, name string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = append(r.handlers[t], handlerEntry{name: name, fn: fn})
}

// For returns the handlers registered for t, in registration order.
func (r *Registry) For(t eventpkg.Type) []handlerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]handlerEntry(nil), r.handlers[t]...)
}
