// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/cartographus/internal/middleware"
)

// chiMiddleware adapts internal/middleware's func(http.HandlerFunc)
// http.HandlerFunc signature onto chi's func(http.Handler) http.Handler so
// it can be registered with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// corsMiddleware builds a go-chi/cors handler from cfg.CORSOrigins. An
// empty origin list is passed through as is, and go-chi/cors then allows
// every origin, matching checkWebSocketOrigin's treatment of an empty list.
func corsMiddleware(cfg Config) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

// rateLimitMiddleware builds an IP-keyed go-chi/httprate limiter from
// cfg.RateLimitRPS/RateLimitBurst. Each IP may make RateLimitBurst requests
// per window of RateLimitBurst/RateLimitRPS seconds (2s with the 200/100
// defaults), so the sustained rate averages RateLimitRPS. A non-positive
// RateLimitRPS gives a one-second window; a non-positive RateLimitBurst is
// treated as 1.
func rateLimitMiddleware(cfg Config) func(http.Handler) http.Handler {
	requests := cfg.RateLimitBurst
	if requests <= 0 {
		requests = 1
	}
	window := time.Second
	if cfg.RateLimitRPS > 0 {
		window = time.Duration(float64(requests) / cfg.RateLimitRPS * float64(time.Second))
	}
	return httprate.Limit(requests, window, httprate.WithKeyFuncs(httprate.KeyByIP))
}

// healthRateLimitMiddleware is deliberately more permissive than the
// event-ingestion limiter so monitoring probes are never throttled.
func healthRateLimitMiddleware() func(http.Handler) http.Handler {
	return httprate.Limit(1000, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
}

var (
	requestIDMiddleware         = chiMiddleware(middleware.RequestID)
	prometheusMetricsMiddleware = chiMiddleware(middleware.PrometheusMetrics)
	compressionMiddleware       = chiMiddleware(middleware.Compression)
)
