// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package broker implements the durable priority queue adapter on NATS
JetStream.

Topology is declared idempotently at startup: three streams
(EVENTS_HIGH, EVENTS_NORMAL, EVENTS_DEAD_LETTER) each with their own
retention, and two durable pull consumers (event_consumer_high,
event_consumer_normal). Publish goes through a Watermill publisher
wrapping the NATS client, so publish-side retries and the
Nats-Msg-Id-based dedup window are handled by the same machinery the rest
of the Watermill ecosystem uses. Consume is pull-based against the native
jetstream.Consumer API, since per-message delivery-count inspection and
explicit Ack/Nak/Term control aren't exposed through Watermill's
subscriber abstraction.

A RateLimiter (golang.org/x/time/rate) throttles publish calls so a burst
of high-priority events can't starve JetStream's own flow control.
*/
package broker
