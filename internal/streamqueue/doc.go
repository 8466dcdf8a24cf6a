// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package streamqueue implements the consumer-group log adapter on Redis
Streams. The ingest façade publishes normal-priority events here first,
and high-priority events here when the broker adapter's breaker reports
unavailable or the broker publish fails.

Three streams share one consumer group, event_processors: events_stream
(normal priority), events_high_priority (high priority), and
events_dlq_stream (dead letters). Each stream is capped at MAX_LEN=10000
via approximate trimming so a stalled consumer group can't grow the
stream without bound.
*/
package streamqueue
