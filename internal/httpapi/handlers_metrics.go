// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import "github.com/prometheus/client_golang/prometheus/promhttp"

// MetricsHandler exposes the process's registered Prometheus collectors
// for GET /api/v1/metrics.
var MetricsHandler = promhttp.Handler()
