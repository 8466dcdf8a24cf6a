// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package deadletter implements the cascading dead-letter path for events
that exhaust their retry budget or fail to decode.

Delivery is attempted against three sinks in order: the broker's
EVENTS_DEAD_LETTER stream, a Badger-backed backup list capped at 10,000
entries, and finally a backup file. A separate time-wheel (a min-heap keyed
by due time) holds events scheduled for delayed redelivery; a Sweeper
drains it on a fixed interval and republishes anything whose due time has
passed onto its originating subject.
*/
package deadletter
