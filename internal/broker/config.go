// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package broker

import "time"

// StreamNameHigh, StreamNameNormal, and StreamNameDeadLetter are the
// JetStream stream names declared by EnsureTopology.
const (
	StreamNameHigh       = "EVENTS_HIGH"
	StreamNameNormal     = "EVENTS_NORMAL"
	StreamNameDeadLetter = "EVENTS_DEAD_LETTER"

	SubjectHigh       = "events.high"
	SubjectNormal     = "events.normal"
	SubjectDeadLetter = "events.dead"

	ConsumerNameHigh   = "event_consumer_high"
	ConsumerNameNormal = "event_consumer_normal"
)

// Config configures the NATS connection, JetStream topology, and
// consumer behavior. Defaults follow SPEC_FULL.md §4.4.
type Config struct {
	URL string

	HighMaxAge   time.Duration // default 24h
	NormalMaxAge time.Duration // default 7 * 24h

	MaxDeliver    int           // default MAX_RETRIES+1 = 6
	AckWait       time.Duration // default 30s
	MaxAckPending int           // default 50
	FetchBatch    int           // default 10
	FetchMaxWait  time.Duration // default 5s

	PublishRatePerSecond float64 // default 500
	PublishBurst         int     // default 100

	EnableTrackMsgID bool // default true
}

// DefaultConfig returns the SPEC_FULL.md §4.4 defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:                  url,
		HighMaxAge:           24 * time.Hour,
		NormalMaxAge:         7 * 24 * time.Hour,
		MaxDeliver:           6,
		AckWait:              30 * time.Second,
		MaxAckPending:        50,
		FetchBatch:           10,
		FetchMaxWait:         5 * time.Second,
		PublishRatePerSecond: 500,
		PublishBurst:         100,
		EnableTrackMsgID:     true,
	}
}
