// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import (
	"net/http"
	"time"
)

// healthResponse is the body of GET /api/v1/health.
type healthResponse struct {
	Status     string `json:"status"`
	Broker     bool   `json:"broker"`
	Stream     bool   `json:"stream"`
	EventStore bool   `json:"event_store"`
	UptimeSecs int64  `json:"uptime_seconds"`
}

// Health handles GET /api/v1/health. A breaker's availability is used as
// the reachability signal for its back-end: the breaker already tracks
// every publish/consume outcome, so a second active probe would just
// duplicate information the breaker already has.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	brokerUp := s.brokerBreaker.IsAvailable()
	streamUp := s.streamBreaker.IsAvailable()
	storeUp := s.store.Ping(r.Context()) == nil

	resp := healthResponse{
		Broker:     brokerUp,
		Stream:     streamUp,
		EventStore: storeUp,
		UptimeSecs: int64(time.Since(s.startTime).Seconds()),
	}

	if brokerUp && streamUp && storeUp {
		resp.Status = "healthy"
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Status = "unhealthy"
	writeJSON(w, http.StatusServiceUnavailable, resp)
}
