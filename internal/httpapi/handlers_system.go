// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import (
	"net/http"
	"time"
)

// SystemInfo handles GET /api/v1/system/info.
func (s *Server) SystemInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"started_at":     s.startTime,
		"endpoint_stats": s.perf.GetStats(),
	})
}

// SystemQueueStats handles GET /api/v1/system/queue-stats.
func (s *Server) SystemQueueStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Counts(r.Context())
	if err != nil {
		writeInternalError(w, "failed to read event counts")
		return
	}
	byStatus := make(map[string]int64, len(counts))
	for status, n := range counts {
		byStatus[string(status)] = n
	}

	resp := map[string]interface{}{"events_by_status": byStatus}

	if s.dlq != nil {
		dlqStats, err := s.dlq.Stats()
		if err == nil {
			resp["dead_letter"] = map[string]interface{}{
				"retry_queue_depth": dlqStats.RetryQueueDepth,
				"kv_backup_count":   dlqStats.KVBackupCount,
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// SystemCircuitBreakers handles GET /api/v1/system/circuit-breakers.
func (s *Server) SystemCircuitBreakers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"broker": map[string]interface{}{
			"state":     s.brokerBreaker.State(),
			"available": s.brokerBreaker.IsAvailable(),
		},
		"stream": map[string]interface{}{
			"state":     s.streamBreaker.State(),
			"available": s.streamBreaker.IsAvailable(),
		},
	})
}

// SystemDLQReplay handles POST /api/v1/system/dlq/replay, a supplemented
// operator endpoint that drains the dead-letter KV backup list back onto
// the broker's dead-letter stream.
func (s *Server) SystemDLQReplay(w http.ResponseWriter, r *http.Request) {
	if s.dlq == nil {
		writeServiceUnavailable(w, "dead-letter manager not configured")
		return
	}
	n, err := s.dlq.RestoreFromBackup(r.Context())
	if err != nil {
		writeInternalError(w, "dead-letter replay failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"replayed": n})
}
