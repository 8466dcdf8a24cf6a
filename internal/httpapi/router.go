// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Router builds the façade's full chi mux. Global middleware applies to
// every route; per-group middleware (rate limiting) is scoped so health
// checks and operator endpoints are never throttled by the event-intake
// limiter.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(s.cfg))
	r.Use(compressionMiddleware)
	r.Use(s.perf.Middleware)

	r.Route("/api/v1/events", func(r chi.Router) {
		r.Use(prometheusMetricsMiddleware)
		r.Use(rateLimitMiddleware(s.cfg))
		r.Post("/", s.CreateEvent)
		r.Get("/{eventId}/status", s.EventStatus)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(healthRateLimitMiddleware())
		r.Get("/", s.Health)
	})

	r.Route("/api/v1/system", func(r chi.Router) {
		r.Use(prometheusMetricsMiddleware)
		r.Get("/info", s.SystemInfo)
		r.Get("/queue-stats", s.SystemQueueStats)
		r.Get("/circuit-breakers", s.SystemCircuitBreakers)
		r.Post("/dlq/replay", s.SystemDLQReplay)
		r.Get("/stream", s.SystemStream)
	})

	r.Handle("/api/v1/metrics", MetricsHandler)

	r.Get("/swagger/doc.json", SwaggerDoc)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
