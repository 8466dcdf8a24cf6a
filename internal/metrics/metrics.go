// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - The ingest façade (request rate, latency, validation failures)
// - The priority router and broker/stream adapters
// - The circuit breakers guarding each back-end resource
// - The retry manager and dead-letter cascade
// - The event processor and its per-handler dispatch

// histogramBuckets is the fixed bucket set used by every duration histogram
// in this package, shared so that dashboards built against one metric work
// against all of them.
var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 7.5, 10.0}

var (
	// Ingest façade metrics (C8)
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of ingest façade HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of ingest façade HTTP requests in seconds",
			Buckets: histogramBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight ingest façade HTTP requests",
		},
	)

	APIValidationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_validation_errors_total",
			Help: "Total number of events rejected by schema validation",
		},
		[]string{"event_type", "field"},
	)

	// Priority router metrics (C6)
	EventsRoutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_routed_total",
			Help: "Total number of events routed to a priority class",
		},
		[]string{"priority", "event_type"},
	)

	EventRoutingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_routing_duration_seconds",
			Help:    "Duration of priority routing decisions in seconds",
			Buckets: histogramBuckets,
		},
		[]string{"priority"},
	)

	QueueFailoverTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_failover_total",
			Help: "Total number of events failed over from one back-end to another",
		},
		[]string{"from", "to"},
	)

	// Event processor metrics (C9)
	EventProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_processing_duration_seconds",
			Help:    "Duration of end-to-end event processing in seconds",
			Buckets: histogramBuckets,
		},
		[]string{"event_type", "priority", "source"},
	)

	EventProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_processed_total",
			Help: "Total number of events that completed processing",
		},
		[]string{"type", "status", "source"},
	)

	HandlerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_errors_total",
			Help: "Total number of per-handler errors during event dispatch",
		},
		[]string{"event_type", "handler"},
	)

	// Circuit breaker metrics (C2)
	BreakerStateGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "breaker_state",
			Help: "Current circuit breaker state per resource (0=closed, 1=half_open, 2=open)",
		},
		[]string{"resource"},
	)

	BreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"resource", "to_state"},
	)

	// Retry manager metrics (C3)
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of republish attempts",
		},
		[]string{"event_type"},
	)

	RetryExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_exhausted_total",
			Help: "Total number of events that exhausted their retry budget",
		},
		[]string{"event_type"},
	)

	// Dead-letter manager metrics (C7)
	DLQEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlq_entries_total",
			Help: "Current number of entries resident in the dead-letter time-wheel",
		},
	)

	DLQEntriesByQueue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dlq_entries_by_queue",
			Help: "Current number of dead-letter entries per cascade queue",
		},
		[]string{"queue"},
	)

	DLQOldestEntryAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlq_oldest_entry_age_seconds",
			Help: "Age in seconds of the oldest entry in the dead-letter time-wheel",
		},
	)

	DLQPermanentFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_permanent_failures_total",
			Help: "Total number of events dead-lettered into any tier of the dead-letter cascade",
		},
		[]string{"event_type"},
	)

	// Broker adapter metrics (C4)
	BrokerMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_published_total",
			Help: "Total number of messages published to the broker",
		},
		[]string{"subject"},
	)

	BrokerMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_consumed_total",
			Help: "Total number of messages consumed from the broker",
		},
		[]string{"subject"},
	)

	BrokerQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "broker_queue_depth",
			Help: "Current number of pending messages per broker subject",
		},
		[]string{"subject"},
	)

	// Stream adapter metrics (C5)
	StreamMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_messages_published_total",
			Help: "Total number of messages published to the stream fallback",
		},
	)

	StreamMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_messages_consumed_total",
			Help: "Total number of messages consumed from the stream fallback",
		},
	)

	StreamConsumerLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_consumer_lag",
			Help: "Current consumer group lag on the stream fallback",
		},
	)

	// Idempotency metrics
	IdempotencyDuplicatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idempotency_duplicates_total",
			Help: "Total number of events rejected as duplicates by the idempotency check",
		},
	)
)

// RecordAPIRequest records an ingest façade HTTP request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight ingest façade HTTP requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordValidationError records a schema validation failure for one field.
func RecordValidationError(eventType, field string) {
	APIValidationErrorsTotal.WithLabelValues(eventType, field).Inc()
}

// RecordEventRouted records a routing decision made by the priority router.
func RecordEventRouted(priority, eventType string, duration time.Duration) {
	EventsRoutedTotal.WithLabelValues(priority, eventType).Inc()
	EventRoutingDuration.WithLabelValues(priority).Observe(duration.Seconds())
}

// RecordQueueFailover records an event that failed over from one back-end to another.
func RecordQueueFailover(from, to string) {
	QueueFailoverTotal.WithLabelValues(from, to).Inc()
}

// RecordEventProcessed records the outcome of end-to-end event processing.
func RecordEventProcessed(eventType, priority, source, status string, duration time.Duration) {
	EventProcessingDuration.WithLabelValues(eventType, priority, source).Observe(duration.Seconds())
	EventProcessedTotal.WithLabelValues(eventType, status, source).Inc()
}

// RecordHandlerError records a per-handler failure during event dispatch.
// The event itself is still marked processed; only the handler's own
// failure is surfaced here.
func RecordHandlerError(eventType, handler string) {
	HandlerErrorsTotal.WithLabelValues(eventType, handler).Inc()
}

// breakerStateValue maps a breaker state name to the gauge encoding used by
// BreakerStateGauge.
func breakerStateValue(state string) float64 {
	switch state {
	case "half_open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordBreakerTransition records a circuit breaker state transition and
// updates the current-state gauge.
func RecordBreakerTransition(resource, toState string) {
	BreakerTransitionsTotal.WithLabelValues(resource, toState).Inc()
	BreakerStateGauge.WithLabelValues(resource).Set(breakerStateValue(toState))
}

// RecordRetryAttempt records a republish attempt by the retry manager.
func RecordRetryAttempt(eventType string) {
	RetryAttemptsTotal.WithLabelValues(eventType).Inc()
}

// RecordRetryExhausted records an event that exhausted its retry budget.
func RecordRetryExhausted(eventType string) {
	RetryExhaustedTotal.WithLabelValues(eventType).Inc()
}

// UpdateDLQGauges updates dead-letter gauge metrics with current stats.
func UpdateDLQGauges(totalEntries int64, oldestEntryAge float64, entriesByQueue map[string]int64) {
	DLQEntriesTotal.Set(float64(totalEntries))
	DLQOldestEntryAge.Set(oldestEntryAge)
	for queue, count := range entriesByQueue {
		DLQEntriesByQueue.WithLabelValues(queue).Set(float64(count))
	}
}

// RecordDLQPermanentFailure records an event that one tier of the
// dead-letter cascade (dead-letter stream → KV backup → file) accepted.
func RecordDLQPermanentFailure(eventType string) {
	DLQPermanentFailuresTotal.WithLabelValues(eventType).Inc()
}

// RecordBrokerPublish records a message published to the broker.
func RecordBrokerPublish(subject string) {
	BrokerMessagesPublished.WithLabelValues(subject).Inc()
}

// RecordBrokerConsume records a message consumed from the broker.
func RecordBrokerConsume(subject string) {
	BrokerMessagesConsumed.WithLabelValues(subject).Inc()
}

// UpdateBrokerQueueDepth updates the broker queue depth gauge for one subject.
func UpdateBrokerQueueDepth(subject string, depth int64) {
	BrokerQueueDepth.WithLabelValues(subject).Set(float64(depth))
}

// RecordStreamPublish records a message published to the stream fallback.
func RecordStreamPublish() {
	StreamMessagesPublished.Inc()
}

// RecordStreamConsume records a message consumed from the stream fallback.
func RecordStreamConsume() {
	StreamMessagesConsumed.Inc()
}

// UpdateStreamConsumerLag updates the stream fallback consumer lag gauge.
func UpdateStreamConsumerLag(lag int64) {
	StreamConsumerLag.Set(float64(lag))
}

// RecordIdempotencyDuplicate records an event rejected as a duplicate.
func RecordIdempotencyDuplicate() {
	IdempotencyDuplicatesTotal.Inc()
}
