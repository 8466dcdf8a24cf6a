// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package websocket provides the live diagnostics feed for the ingestion
pipeline: a read-only broadcast of the pipeline's own health to connected
operator clients.

This is not a data-plane path — no event payload travels through it. It
exists so an operator dashboard can watch queue depths, breaker state
transitions, and dead-letter events happen in real time, instead of
polling metrics.

Key Components:

  - Hub: Central message broker that manages client connections and broadcasts
  - Client: Represents a single WebSocket connection with read/write goroutines
  - Message: Typed message structure for different diagnostic event types

Architecture:

The package implements a hub-and-spoke pattern:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: Reads from WebSocket, handles pings
  - writePump: Writes to WebSocket, sends pongs

Message Types:

  - health_snapshot: periodic point-in-time view (queue depths, breaker states, DLQ size)
  - queue_depth: a single queue's depth changed
  - breaker_state: a circuit breaker transitioned (closed/open/half_open)
  - dead_letter: an event exhausted its retry cascade
  - event_processed: an event finished processing, for a live-tail view

Usage Example - Server:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	http.HandleFunc("/api/v1/system/stream", func(w http.ResponseWriter, r *http.Request) {
	    websocket.ServeWS(hub, w, r)
	})

	hub.BroadcastQueueDepth("events.normal", 42)
	hub.BroadcastBreakerState("duckdb", "open")

Usage Example - Client (JavaScript):

	const ws = new WebSocket('ws://localhost:3857/api/v1/system/stream');

	ws.onmessage = (event) => {
	    const msg = JSON.parse(event.data);
	    if (msg.type === 'breaker_state') {
	        flagResource(msg.data.resource, msg.data.state);
	    }
	};

Connection Lifecycle:

1. Client connects via HTTP upgrade
2. Hub registers client
3. Client starts read/write goroutines
4. Hub broadcasts diagnostic messages to all clients
5. Client disconnects (network error or explicit close)
6. Hub unregisters client and cleans up

Thread Safety:

The package is fully thread-safe:
  - Hub uses mutex for client map access
  - Channels coordinate goroutine communication
  - Each client has separate read/write goroutines

Configuration:

WebSocket settings:
  - writeWait: 10 seconds (time allowed to write message)
  - pongWait: 60 seconds (time allowed to read pong)
  - pingPeriod: 54 seconds (ping interval, must be < pongWait)
  - maxMessageSize: 512 KB (max message size)

See Also:

  - github.com/gorilla/websocket: Underlying WebSocket library
  - internal/httpapi: mounts the /api/v1/system/stream upgrade endpoint
  - internal/supervisor/services: WebSocketHubService supervises RunWithContext
*/
package websocket
