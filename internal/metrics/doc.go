// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package metrics provides Prometheus instrumentation for the ingestion
pipeline.

Every metric is a package-level promauto-registered vector
(*prometheus.CounterVec, *prometheus.GaugeVec, *prometheus.HistogramVec),
paired with a small RecordX/UpdateX helper so call sites never touch the
underlying Prometheus client types directly.

# Metric Groups

  - Ingest façade (C8): api_requests_total, api_request_duration_seconds,
    api_active_requests, api_validation_errors_total
  - Priority router (C6): events_routed_total, event_routing_duration_seconds,
    queue_failover_total
  - Event processor (C9): event_processing_duration_seconds,
    event_processed_total, handler_errors_total
  - Circuit breaker (C2): breaker_state, breaker_transitions_total
  - Retry manager (C3): retry_attempts_total, retry_exhausted_total
  - Dead-letter manager (C7): dlq_entries_total, dlq_entries_by_queue,
    dlq_oldest_entry_age_seconds, dlq_permanent_failures_total
  - Broker adapter (C4): broker_messages_published_total,
    broker_messages_consumed_total, broker_queue_depth
  - Stream adapter (C5): stream_messages_published_total,
    stream_messages_consumed_total, stream_consumer_lag
  - Idempotency: idempotency_duplicates_total

# Histogram Buckets

All duration histograms share one bucket set: 5ms, 10ms, 25ms, 50ms, 75ms,
100ms, 250ms, 500ms, 750ms, 1s, 2.5s, 5s, 7.5s, 10s. Keeping one bucket set
across metrics means a dashboard panel built against one histogram's le
buckets works unmodified against any other.

# Usage Example

	metrics.RecordEventRouted("high", "purchase", time.Since(start))
	metrics.RecordBreakerTransition("duckdb", "open")

# Exposition

GET /api/v1/metrics is served by promhttp.Handler(), mounted on the chi
router in internal/httpapi.
*/
package metrics
