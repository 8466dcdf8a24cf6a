// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package processor implements the terminal step every ingested event
passes through: an idempotency check, a transactional DuckDB write, and
fan-out to the handlers registered for the event's type.

Process has the signature both internal/broker's Consumer and
internal/streamqueue's Consumer expect as a Handler, so the same
*Processor instance drains both back-ends.
*/
package processor
