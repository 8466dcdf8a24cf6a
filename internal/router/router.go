// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package router

import (
	"time"

	"github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// Priority is the routing decision Route returns: which class of adapter
// an event belongs on.
type Priority string

const (
	// PriorityHighClass routes to the broker's high-priority queue or
	// the stream's high-priority stream.
	PriorityHighClass Priority = "high"
	// PriorityNormalClass routes to the normal-priority queue/stream.
	PriorityNormalClass Priority = "normal"
)

// highPriorityEventTypes extends the event-type trigger beyond the
// purchase/subscription/payment set DerivePriority uses, covering
// additional financial event types a future intake schema revision may
// introduce without requiring a second routing rule.
var highPriorityEventTypes = map[event.Type]bool{
	event.TypePurchase:              true,
	event.TypeSubscription:          true,
	event.TypePayment:               true,
	event.Type("refund"):            true,
	event.Type("credit_card_added"): true,
}

// largePurchaseThreshold is the payload amount at or above which a purchase is
// routed high priority even if its derived/assigned priority is below
// the general threshold.
const largePurchaseThreshold = 100.0

// Route classifies e and records the decision to internal/metrics. The
// returned Priority never depends on I/O; callers use it to pick between
// the broker and stream adapters.
func Route(e *event.Event) Priority {
	start := time.Now()
	priority := classify(e)
	metrics.RecordEventRouted(string(priority), string(e.EventType), time.Since(start))
	return priority
}

func classify(e *event.Event) Priority {
	if highPriorityEventTypes[e.EventType] {
		return PriorityHighClass
	}
	if event.IsHighPriority(e.Priority) {
		return PriorityHighClass
	}
	if e.EventType == event.TypePurchase {
		if amount, ok := toFloat64(e.Payload["amount"]); ok && amount >= largePurchaseThreshold {
			return PriorityHighClass
		}
	}
	return PriorityNormalClass
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
