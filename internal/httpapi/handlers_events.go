// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	eventpkg "github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// eventRequest is the wire shape of POST /api/v1/events, decoded onto an
// Event before Prepare/Validate run.
type eventRequest struct {
	UserID         string                 `json:"user_id"`
	EventType      eventpkg.Type          `json:"event_type"`
	Timestamp      string                 `json:"timestamp"`
	Payload        map[string]interface{} `json:"payload"`
	Metadata       *eventpkg.Metadata     `json:"metadata,omitempty"`
	Priority       *int                   `json:"priority,omitempty"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
}

// CreateEvent handles POST /api/v1/events.
func (s *Server) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []string{"request body is not valid JSON"})
		return
	}

	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		writeValidationError(w, []string{"timestamp must be RFC3339"})
		return
	}

	e := &eventpkg.Event{
		UserID:         req.UserID,
		EventType:      req.EventType,
		Timestamp:      ts,
		Payload:        req.Payload,
		Metadata:       req.Metadata,
		IdempotencyKey: req.IdempotencyKey,
		Source:         eventpkg.SourceAPI,
	}
	if req.Priority != nil {
		e.SetPriority(*req.Priority)
	}

	if err := e.Prepare(); err != nil {
		writeInternalError(w, "failed to assign event id")
		return
	}

	if err := e.Validate(); err != nil {
		var ve *eventpkg.ValidationError
		if errors.As(err, &ve) {
			messages := make([]string, 0, len(ve.Fields))
			for _, fe := range ve.Fields {
				metrics.RecordValidationError(string(e.EventType), fe.Field)
				messages = append(messages, fe.Field+": "+fe.Rule)
			}
			if len(messages) == 0 {
				messages = []string{ve.Error()}
			}
			writeValidationError(w, messages)
			return
		}
		writeValidationError(w, []string{err.Error()})
		return
	}

	result, err := s.ingester.Ingest(r.Context(), e)
	if err != nil {
		logging.Error().Err(err).Str("event_id", e.ID).Msg("ingest failed")
		writeInternalError(w, "failed to accept event")
		return
	}

	if result.Cached {
		writeCached(w, result.EventID)
		return
	}
	writeAccepted(w, result.EventID, "event accepted", result.QueueMessageID)
}

// EventStatus handles GET /api/v1/events/{eventId}/status.
func (s *Server) EventStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventId")
	e, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeNotFound(w, "event not found")
			return
		}
		writeInternalError(w, "failed to look up event")
		return
	}

	resp := eventStatusResponse{EventID: e.ID, Status: string(e.Status)}
	if e.Status == eventpkg.StatusPending || e.Status == eventpkg.StatusProcessing {
		resp.EstimatedTime = "a few seconds"
	}
	writeJSON(w, http.StatusOK, resp)
}

type eventStatusResponse struct {
	EventID       string `json:"event_id"`
	Status        string `json:"status"`
	EstimatedTime string `json:"estimated_time,omitempty"`
}
