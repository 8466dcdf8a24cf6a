// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package retry tracks per-event retry attempts and computes the delay
before the next attempt.

Attempt counters are stored in Badger with a 24h TTL keyed by event ID, so
the count survives a process restart but is eventually reclaimed even if
an event is never explicitly cleared. The backoff formula is exponential
with jitter: delay(attempt) = min(MaxDelay, Initial*Backoff^attempt),
jittered by ±20%.
*/
package retry
