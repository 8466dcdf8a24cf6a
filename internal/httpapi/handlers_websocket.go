// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/cartographus/internal/logging"
	ws "github.com/tomtom215/cartographus/internal/websocket"
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      s.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin rejects WebSocket upgrades without an Origin
// header (legitimate browsers always send one) and, when cfg.CORSOrigins
// is non-empty, requires the Origin to be in that allow-list.
func (s *Server) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}
	if len(s.cfg.CORSOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// SystemStream handles GET /api/v1/system/stream, upgrading to a
// WebSocket and registering the connection with the diagnostics hub.
func (s *Server) SystemStream(w http.ResponseWriter, r *http.Request) {
	if s.wsHub == nil {
		writeServiceUnavailable(w, "diagnostics stream not available")
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(s.wsHub, conn)
	s.wsHub.Register <- client
	client.Start()
}
