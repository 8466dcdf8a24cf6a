// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package breaker wraps sony/gobreaker/v2 with the per-resource operator
controls the pipeline needs that gobreaker itself does not expose: a
force-open/force-close escape hatch and an explicit IsAvailable query.

One Breaker guards one external resource (the broker, the stream, the
event store, ...). CLOSED/OPEN/HALF_OPEN transitions and the
failure/success counters are handled by the underlying gobreaker
CircuitBreaker; Breaker only adds the forced-state layer on top and
reports every transition to internal/metrics.
*/
package breaker
