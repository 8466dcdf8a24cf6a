// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package event defines the Event type that flows through every stage of the
ingestion pipeline: validation at the ingest façade (C8), priority routing
(C6), the broker/stream adapters (C4/C5), the retry and dead-letter
managers (C3/C7), and the event processor (C9).

An Event is intake-agnostic: it carries no knowledge of which back-end
delivered it, only the provenance fields (Source, QueueInfo) recording
where it came from.
*/
package event
