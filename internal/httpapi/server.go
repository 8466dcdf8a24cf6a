// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import (
	"time"

	"github.com/tomtom215/cartographus/internal/breaker"
	"github.com/tomtom215/cartographus/internal/deadletter"
	"github.com/tomtom215/cartographus/internal/eventstore"
	"github.com/tomtom215/cartographus/internal/middleware"
	"github.com/tomtom215/cartographus/internal/websocket"
)

// Server holds every dependency the ingest façade's handlers read from.
// It owns no lifecycle of its own; internal/supervisor/services'
// HTTPServerService supervises the *http.Server built from Router()
// through its ListenAndServe/Shutdown methods.
type Server struct {
	cfg Config

	ingester *Ingester
	store    *eventstore.Store
	dlq      *deadletter.Manager

	brokerBreaker *breaker.Breaker
	streamBreaker *breaker.Breaker

	wsHub *websocket.Hub
	perf  *middleware.PerformanceMonitor

	startTime time.Time
}

// NewServer wires the handlers' dependencies together.
func NewServer(cfg Config, ingester *Ingester, store *eventstore.Store, dlq *deadletter.Manager, brokerBreaker, streamBreaker *breaker.Breaker, wsHub *websocket.Hub) *Server {
	return &Server{
		cfg:           cfg,
		ingester:      ingester,
		store:         store,
		dlq:           dlq,
		brokerBreaker: brokerBreaker,
		streamBreaker: streamBreaker,
		wsHub:         wsHub,
		perf:          middleware.NewPerformanceMonitor(500),
		startTime:     time.Now().UTC(),
	}
}
