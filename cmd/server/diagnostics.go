// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"context"
	"time"

	"github.com/tomtom215/cartographus/internal/breaker"
	"github.com/tomtom215/cartographus/internal/deadletter"
	"github.com/tomtom215/cartographus/internal/eventstore"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/websocket"
)

// diagnosticsInterval is how often diagnosticsService pushes a health
// snapshot onto the live-diagnostics WebSocket feed.
const diagnosticsInterval = 10 * time.Second

// diagnosticsService periodically samples queue depths, circuit breaker
// states, and dead-letter backlog and broadcasts them to every connected
// SystemStream client. It satisfies suture.Service.
type diagnosticsService struct {
	store         *eventstore.Store
	dlq           *deadletter.Manager
	brokerBreaker *breaker.Breaker
	streamBreaker *breaker.Breaker
	hub           *websocket.Hub
}

func newDiagnosticsService(store *eventstore.Store, dlq *deadletter.Manager, brokerBreaker, streamBreaker *breaker.Breaker, hub *websocket.Hub) *diagnosticsService {
	return &diagnosticsService{
		store:         store,
		dlq:           dlq,
		brokerBreaker: brokerBreaker,
		streamBreaker: streamBreaker,
		hub:           hub,
	}
}

// Serve implements suture.Service.
func (d *diagnosticsService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(diagnosticsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.sample(ctx)
		}
	}
}

func (d *diagnosticsService) sample(ctx context.Context) {
	counts, err := d.store.Counts(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("diagnostics: failed to read event counts")
		return
	}

	depths := make(map[string]int64, len(counts))
	var inFlight int64
	for status, n := range counts {
		depths[string(status)] = n
		if status == "processing" || status == "pending" {
			inFlight += n
		}
	}

	var dlqDepth int64
	if d.dlq != nil {
		if stats, err := d.dlq.Stats(); err == nil {
			dlqDepth = int64(stats.RetryQueueDepth) + stats.KVBackupCount
		}
	}

	d.hub.BroadcastHealthSnapshot(websocket.HealthSnapshot{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		QueueDepths:    depths,
		DeadLetterSize: dlqDepth,
		EventsInFlight: inFlight,
		BreakerStates: map[string]string{
			"broker": d.brokerBreaker.State(),
			"stream": d.streamBreaker.State(),
		},
	})

	for name, depth := range depths {
		d.hub.BroadcastQueueDepth(name, depth)
	}
	d.hub.BroadcastBreakerState("broker", d.brokerBreaker.State())
	d.hub.BroadcastBreakerState("stream", d.streamBreaker.State())
}

// String implements fmt.Stringer for logging.
func (d *diagnosticsService) String() string {
	return "diagnostics-broadcaster"
}
