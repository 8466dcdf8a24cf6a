// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package cache provides the in-process data structures backing the dead-letter
time-wheel and the stream consumer's redelivery deduplication.

MinHeap[T] orders entries by timestamp for O(log n) push/pop. The dead-letter
manager uses it to schedule delayed redelivery: an entry becomes eligible for
republish once its due-at timestamp is reached, and the heap always surfaces
the next-due entry first.

LRUCache tracks recently-seen keys with TTL-based expiry and O(1) eviction.
The Redis Streams consumer (internal/streamqueue) uses it to skip an entry ID
it has handled recently. The ingest façade does not use it; its idempotency
check reads Badger directly.
*/
package cache
