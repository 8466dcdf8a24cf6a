// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package streamqueue

import "time"

// Stream keys and the shared consumer group, per SPEC_FULL.md §4.5.
const (
	StreamNormal = "events_stream"
	StreamHigh   = "events_high_priority"
	StreamDLQ    = "events_dlq_stream"

	ConsumerGroup = "event_processors"

	// MaxAttempts is the number of failed handler invocations an entry
	// tolerates before it is moved to StreamDLQ.
	MaxAttempts = 3
)

// Config configures the Redis connection and stream behavior.
type Config struct {
	Addr string
	// MaxLen caps each stream's length via approximate (~) trimming.
	MaxLen int64
	// BlockTimeout bounds how long Consumer.Run's XREADGROUP call waits
	// for new entries before returning empty.
	BlockTimeout time.Duration
	// Count is the maximum number of entries fetched per XREADGROUP call.
	Count int64
	// IdleTimeout is how long a pending entry must sit unacknowledged
	// before claimPending will reclaim it from its original consumer.
	IdleTimeout time.Duration
	// ClaimInterval is how often the claim loop runs, per §4.5's
	// "claim timeout is 2 x idle_ms".
	ClaimInterval time.Duration
	// ClaimLimit bounds how many pending entries one claim pass inspects.
	ClaimLimit int64
}

// DefaultConfig returns the SPEC_FULL.md §4.5 defaults.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:          addr,
		MaxLen:        10_000,
		BlockTimeout:  5 * time.Second,
		Count:         10,
		IdleTimeout:   30 * time.Second,
		ClaimInterval: 60 * time.Second,
		ClaimLimit:    100,
	}
}
