// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/logging"
)

// acceptResponse is the body of a successful POST /api/v1/events
// response, per SPEC_FULL.md §6.
type acceptResponse struct {
	Success        bool   `json:"success"`
	EventID        string `json:"event_id"`
	Message        string `json:"message"`
	QueueMessageID string `json:"queue_message_id,omitempty"`
	Cached         bool   `json:"cached,omitempty"`
}

// validationErrorResponse is the body of a 400 response.
type validationErrorResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages"`
}

// errorResponse is the body of a generic non-validation error response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("failed to encode response body")
	}
}

func writeAccepted(w http.ResponseWriter, eventID, message, queueMessageID string) {
	writeJSON(w, http.StatusAccepted, acceptResponse{
		Success:        true,
		EventID:        eventID,
		Message:        message,
		QueueMessageID: queueMessageID,
	})
}

func writeCached(w http.ResponseWriter, eventID string) {
	writeJSON(w, http.StatusOK, acceptResponse{
		Success: true,
		EventID: eventID,
		Message: "event already processed",
		Cached:  true,
	})
}

func writeValidationError(w http.ResponseWriter, messages []string) {
	writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:    "validation failed",
		Messages: messages,
	})
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: message})
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: message})
}

func writeServiceUnavailable(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: message})
}
