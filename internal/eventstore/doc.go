// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package eventstore persists accepted events to DuckDB, the terminal store
both the broker and stream consumers drain into.

The events table enforces idempotency_key uniqueness at the database
level in addition to the Badger-backed idempotency check upstream, so a
duplicate insert is a normal, handled outcome rather than a constraint
violation bubbling up as an internal error.
*/
package eventstore
