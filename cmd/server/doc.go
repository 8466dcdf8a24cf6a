// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Command server wires together the event ingestion and dispatch pipeline
described in SPEC_FULL.md and runs it under one suture supervision tree.

# Components

  - HTTP ingest façade (internal/httpapi): validates, deduplicates, and
    routes incoming events, publishing onto whichever back-end its
    priority class and circuit breaker state select.
  - NATS JetStream priority broker (internal/broker): the durable,
    ordered high/normal priority queues, each with a dedicated consumer
    that drains into the event processor.
  - Redis Streams fallback (internal/streamqueue): a consumer-group
    backed log the ingest façade fails over to when the broker's
    breaker opens.
  - Event processor (internal/processor): the transactional DuckDB
    insert-and-dispatch step every accepted event passes through.
    Delivery is at-least-once; an idempotency key turns a redelivered
    duplicate into a no-op.
  - Dead-letter manager and sweeper (internal/deadletter): the delayed
    retry time-wheel, and the cascade of broker dead-letter stream, KV
    backup, and file backup an event falls through once it exhausts its
    retry budget.
  - Badger value-log GC loop (internal/retry): periodic maintenance over
    the shared key-value store backing idempotency records, retry
    counters, and the dead-letter KV backup.
  - Live diagnostics (internal/websocket): a supplemented read-only feed
    of queue depths, breaker states, and processed-event notifications
    for operators watching /api/v1/system/stream.

# Configuration

All runtime parameters come from internal/config.LoadWithKoanf, which
layers defaults, an optional YAML file, and environment variables. See
internal/config's package doc for the full precedence order.

# Shutdown

The process treats SIGINT, SIGTERM, SIGHUP, an operator-dropped shutdown flag
file, a configured maximum uptime, and a configured memory ceiling
identically: each cancels the same root context, and the supervision
tree drains every service before the process exits.
*/
package main
