// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import "net/http"

// swaggerSpec is a hand-maintained OpenAPI document for the ingest
// façade's fixed endpoint set. The teacher generates this file with
// `swag init` from handler annotations; this service's handler count is
// small and stable enough that maintaining it directly is simpler than
// wiring the generator into the build.
const swaggerSpec = `{
  "swagger": "2.0",
  "info": {
    "title": "Cartographus Event Ingestion API",
    "description": "Analytics event ingestion and dispatch service.",
    "version": "1.0"
  },
  "basePath": "/api/v1",
  "paths": {
    "/events": {
      "post": {
        "summary": "Accept an event for ingestion",
        "responses": {
          "202": {"description": "Accepted"},
          "200": {"description": "Idempotent replay"},
          "400": {"description": "Validation failed"}
        }
      }
    },
    "/events/{eventId}/status": {
      "get": {
        "summary": "Look up an event's processing status",
        "parameters": [
          {"name": "eventId", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "OK"},
          "404": {"description": "Not found"}
        }
      }
    },
    "/health": {
      "get": {
        "summary": "Report broker/stream/store reachability",
        "responses": {"200": {"description": "Healthy"}, "503": {"description": "Unhealthy"}}
      }
    },
    "/metrics": {
      "get": {
        "summary": "Prometheus exposition",
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/system/info": {
      "get": {"summary": "Process diagnostics", "responses": {"200": {"description": "OK"}}}
    },
    "/system/queue-stats": {
      "get": {"summary": "Event store and dead-letter counts", "responses": {"200": {"description": "OK"}}}
    },
    "/system/circuit-breakers": {
      "get": {"summary": "Breaker state snapshot", "responses": {"200": {"description": "OK"}}}
    },
    "/system/dlq/replay": {
      "post": {"summary": "Drain the dead-letter KV backup list", "responses": {"200": {"description": "OK"}}}
    }
  }
}`

// SwaggerDoc serves the raw OpenAPI document swaggo/http-swagger's UI
// fetches.
func SwaggerDoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(swaggerSpec))
}
