// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package services provides suture.Service wrappers for the ingestion
pipeline's components.

This package adapts each component's own lifecycle (Start/Stop,
ListenAndServe/Shutdown, RunWithContext) to suture's context-aware Serve
pattern, so every long-running piece of the pipeline is supervised and
restarted the same way.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server (the ingest façade) with graceful shutdown
  - Converts ListenAndServe to Serve

WebSocket Hub (WebSocketHubService):
  - Wraps the diagnostics websocket.Hub with context support

Event Broker (BrokerService):
  - Wraps the NATS JetStream publisher/subscriber and watermill router
  - Build failures on connect are retried under suture's backoff policy

Retry Coordinator (RetryCoordinatorService):
  - Wraps the Badger-backed republish coordinator

Dead-Letter Sweeper (DeadLetterSweeperService):
  - Wraps the time-wheel sweeper that pops due entries for cascade retry

# Error Handling

Return values determine supervisor behavior:

	nil         -> service stopped cleanly, will not restart
	error       -> service crashed, supervisor will restart
	ctx.Err()   -> shutdown requested, normal termination

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: underlying supervision library
*/
package services
