// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package router classifies an event as high or normal priority and reports
the routing decision to internal/metrics. It makes no I/O calls itself;
the caller (the ingest façade's Ingester in internal/httpapi) picks the
broker or stream adapter based on the returned Priority.
*/
package router
