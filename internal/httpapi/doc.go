// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package httpapi implements the synchronous ingest façade: a chi router
that validates, deduplicates, and routes incoming events to the broker
or stream adapter with circuit-breaker failover, plus the diagnostics
surface (health, metrics, system info, live WebSocket feed) operators
use to watch the pipeline.

The façade never blocks on the event processor; it hands an event to an
adapter and returns as soon as the adapter accepts (or, on double
failure, persists the event directly with status=failed). C9's handler
fan-out happens out-of-band as the worker supervisor drains the chosen
back-end.
*/
package httpapi
