// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/events", "202"))

	RecordAPIRequest("POST", "/api/v1/events", "202", 15*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/events", "202"))
	if after != before+1 {
		t.Errorf("APIRequestsTotal = %v, want %v", after, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("APIActiveRequests after inc = %v, want %v", got, before+1)
	}

	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("APIActiveRequests after dec = %v, want %v", got, before)
	}
}

func TestRecordValidationError(t *testing.T) {
	before := testutil.ToFloat64(APIValidationErrorsTotal.WithLabelValues("purchase", "amount"))

	RecordValidationError("purchase", "amount")

	after := testutil.ToFloat64(APIValidationErrorsTotal.WithLabelValues("purchase", "amount"))
	if after != before+1 {
		t.Errorf("APIValidationErrorsTotal = %v, want %v", after, before+1)
	}
}

func TestRecordEventRouted(t *testing.T) {
	before := testutil.ToFloat64(EventsRoutedTotal.WithLabelValues("high", "purchase"))

	RecordEventRouted("high", "purchase", 2*time.Millisecond)

	after := testutil.ToFloat64(EventsRoutedTotal.WithLabelValues("high", "purchase"))
	if after != before+1 {
		t.Errorf("EventsRoutedTotal = %v, want %v", after, before+1)
	}
}

func TestRecordQueueFailover(t *testing.T) {
	before := testutil.ToFloat64(QueueFailoverTotal.WithLabelValues("nats", "redis"))

	RecordQueueFailover("nats", "redis")

	after := testutil.ToFloat64(QueueFailoverTotal.WithLabelValues("nats", "redis"))
	if after != before+1 {
		t.Errorf("QueueFailoverTotal = %v, want %v", after, before+1)
	}
}

func TestRecordEventProcessed(t *testing.T) {
	before := testutil.ToFloat64(EventProcessedTotal.WithLabelValues("purchase", "success", "broker"))

	RecordEventProcessed("purchase", "high", "broker", "success", 5*time.Millisecond)

	after := testutil.ToFloat64(EventProcessedTotal.WithLabelValues("purchase", "success", "broker"))
	if after != before+1 {
		t.Errorf("EventProcessedTotal = %v, want %v", after, before+1)
	}
}

func TestRecordHandlerError(t *testing.T) {
	before := testutil.ToFloat64(HandlerErrorsTotal.WithLabelValues("purchase", "fraud-scorer"))

	RecordHandlerError("purchase", "fraud-scorer")

	after := testutil.ToFloat64(HandlerErrorsTotal.WithLabelValues("purchase", "fraud-scorer"))
	if after != before+1 {
		t.Errorf("HandlerErrorsTotal = %v, want %v", after, before+1)
	}
}

func TestBreakerStateValue(t *testing.T) {
	cases := map[string]float64{
		"closed":    0,
		"half_open": 1,
		"open":      2,
		"unknown":   0,
	}
	for state, want := range cases {
		if got := breakerStateValue(state); got != want {
			t.Errorf("breakerStateValue(%q) = %v, want %v", state, got, want)
		}
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("duckdb", "open")

	if got := testutil.ToFloat64(BreakerStateGauge.WithLabelValues("duckdb")); got != 2 {
		t.Errorf("BreakerStateGauge = %v, want 2", got)
	}

	before := testutil.ToFloat64(BreakerTransitionsTotal.WithLabelValues("duckdb", "open"))
	RecordBreakerTransition("duckdb", "open")
	after := testutil.ToFloat64(BreakerTransitionsTotal.WithLabelValues("duckdb", "open"))
	if after != before+1 {
		t.Errorf("BreakerTransitionsTotal = %v, want %v", after, before+1)
	}
}

func TestUpdateDLQGauges(t *testing.T) {
	UpdateDLQGauges(7, 120.5, map[string]int64{"broker": 4, "stream": 3})

	if got := testutil.ToFloat64(DLQEntriesTotal); got != 7 {
		t.Errorf("DLQEntriesTotal = %v, want 7", got)
	}
	if got := testutil.ToFloat64(DLQOldestEntryAge); got != 120.5 {
		t.Errorf("DLQOldestEntryAge = %v, want 120.5", got)
	}
	if got := testutil.ToFloat64(DLQEntriesByQueue.WithLabelValues("broker")); got != 4 {
		t.Errorf("DLQEntriesByQueue[broker] = %v, want 4", got)
	}
}

func TestRecordDLQPermanentFailure(t *testing.T) {
	before := testutil.ToFloat64(DLQPermanentFailuresTotal.WithLabelValues("purchase"))

	RecordDLQPermanentFailure("purchase")

	after := testutil.ToFloat64(DLQPermanentFailuresTotal.WithLabelValues("purchase"))
	if after != before+1 {
		t.Errorf("DLQPermanentFailuresTotal = %v, want %v", after, before+1)
	}
}

func TestBrokerMetrics(t *testing.T) {
	beforePub := testutil.ToFloat64(BrokerMessagesPublished.WithLabelValues("events.high"))
	RecordBrokerPublish("events.high")
	if got := testutil.ToFloat64(BrokerMessagesPublished.WithLabelValues("events.high")); got != beforePub+1 {
		t.Errorf("BrokerMessagesPublished = %v, want %v", got, beforePub+1)
	}

	beforeCon := testutil.ToFloat64(BrokerMessagesConsumed.WithLabelValues("events.high"))
	RecordBrokerConsume("events.high")
	if got := testutil.ToFloat64(BrokerMessagesConsumed.WithLabelValues("events.high")); got != beforeCon+1 {
		t.Errorf("BrokerMessagesConsumed = %v, want %v", got, beforeCon+1)
	}

	UpdateBrokerQueueDepth("events.high", 42)
	if got := testutil.ToFloat64(BrokerQueueDepth.WithLabelValues("events.high")); got != 42 {
		t.Errorf("BrokerQueueDepth = %v, want 42", got)
	}
}

func TestStreamMetrics(t *testing.T) {
	beforePub := testutil.ToFloat64(StreamMessagesPublished)
	RecordStreamPublish()
	if got := testutil.ToFloat64(StreamMessagesPublished); got != beforePub+1 {
		t.Errorf("StreamMessagesPublished = %v, want %v", got, beforePub+1)
	}

	beforeCon := testutil.ToFloat64(StreamMessagesConsumed)
	RecordStreamConsume()
	if got := testutil.ToFloat64(StreamMessagesConsumed); got != beforeCon+1 {
		t.Errorf("StreamMessagesConsumed = %v, want %v", got, beforeCon+1)
	}

	UpdateStreamConsumerLag(13)
	if got := testutil.ToFloat64(StreamConsumerLag); got != 13 {
		t.Errorf("StreamConsumerLag = %v, want 13", got)
	}
}

func TestRecordIdempotencyDuplicate(t *testing.T) {
	before := testutil.ToFloat64(IdempotencyDuplicatesTotal)

	RecordIdempotencyDuplicate()

	after := testutil.ToFloat64(IdempotencyDuplicatesTotal)
	if after != before+1 {
		t.Errorf("IdempotencyDuplicatesTotal = %v, want %v", after, before+1)
	}
}
