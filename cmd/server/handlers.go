// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"context"

	eventpkg "github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/processor"
	"github.com/tomtom215/cartographus/internal/websocket"
)

// allEventTypes lists every eventpkg.Type so a handler can be registered
// against the whole domain rather than one type at a time.
var allEventTypes = []eventpkg.Type{
	eventpkg.TypeClick,
	eventpkg.TypeView,
	eventpkg.TypePurchase,
	eventpkg.TypeLogin,
	eventpkg.TypeLogout,
	eventpkg.TypeSignup,
	eventpkg.TypeSubscription,
	eventpkg.TypePayment,
	eventpkg.TypeCustom,
}

// registerDefaultHandlers wires the handler fan-out §4.9 describes:
// a revenue-ledger log line for monetary event types, and a diagnostics
// broadcast onto the WebSocket hub for every processed event.
func registerDefaultHandlers(registry *processor.Registry, hub *websocket.Hub) {
	for _, t := range []eventpkg.Type{eventpkg.TypePurchase, eventpkg.TypeSubscription, eventpkg.TypePayment} {
		registry.Register(t, "revenue-ledger", revenueLedgerHandler)
	}

	for _, t := range allEventTypes {
		registry.Register(t, "diagnostics-broadcast", diagnosticsBroadcastHandler(hub))
	}
}

// revenueLedgerHandler logs monetary events at a distinct level so they
// can be routed to a billing audit log downstream, per SPEC_FULL.md's
// purchase-amount handling.
func revenueLedgerHandler(_ context.Context, e *eventpkg.Event) error {
	logging.Info().
		Str("event_id", e.ID).
		Str("user_id", e.UserID).
		Str("event_type", string(e.EventType)).
		Interface("payload", e.Payload).
		Msg("revenue event processed")
	return nil
}

// diagnosticsBroadcastHandler pushes a processed-event notification onto
// the live-diagnostics WebSocket feed (SystemStream).
func diagnosticsBroadcastHandler(hub *websocket.Hub) processor.Handler {
	return func(_ context.Context, e *eventpkg.Event) error {
		if hub == nil || e.ProcessedAt == nil {
			return nil
		}
		hub.BroadcastEventProcessed(e.ID, string(e.EventType), e.ProcessedAt.Sub(e.Timestamp).Milliseconds())
		return nil
	}
}
