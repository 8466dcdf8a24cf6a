// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package streamqueue

import (
	"context"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/cartographus/internal/cache"
	eventpkg "github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// Handler processes one decoded event read from a stream.
type Handler func(ctx context.Context, e *eventpkg.Event) error

// redeliveryCacheCapacity and redeliveryCacheTTL bound the in-memory
// redelivery-suppression cache below. Sizing follows the fetch batch
// size class: enough entries to cover several batches' worth of claim
// churn without holding on to stale entry IDs indefinitely.
const (
	redeliveryCacheCapacity = 50000
	redeliveryCacheTTL      = 10 * time.Minute
)

// Consumer reads from one stream under ConsumerGroup and dispatches
// entries to Handler, re-appending failed entries with an incremented
// attempt count until MaxAttempts is reached.
type Consumer struct {
	client  *redis.Client
	cfg     Config
	stream  string
	id      string
	handler Handler

	// recent suppresses redundant Handler invocations for entry IDs
	// claimPending just reclaimed and handleEntry already processed
	// moments earlier in the same reclaim pass. It is a pure
	// optimization: eviction or a cold start never causes a missed
	// duplicate, because the processor's own idempotency check is the
	// correctness backstop.
	recent *cache.LRUCache
}

// NewConsumer builds a Consumer bound to stream.
func NewConsumer(client *redis.Client, cfg Config, stream string, handler Handler) *Consumer {
	return &Consumer{
		client:  client,
		cfg:     cfg,
		stream:  stream,
		id:      consumerID(),
		handler: handler,
		recent:  cache.NewLRUCache(redeliveryCacheCapacity, redeliveryCacheTTL),
	}
}

// Run reads and dispatches entries in a loop until ctx is canceled. A
// second goroutine periodically reclaims pending entries whose owning
// consumer crashed before acknowledging them.
func (c *Consumer) Run(ctx context.Context) error {
	go c.claimLoop(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    ConsumerGroup,
			Consumer: c.id,
			Streams:  []string{c.stream, ">"},
			Count:    c.cfg.Count,
			Block:    c.cfg.BlockTimeout,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			continue
		}

		for _, streamResult := range result {
			for _, msg := range streamResult.Messages {
				c.handleEntry(ctx, msg)
			}
		}
	}
}

// handleEntry implements SPEC_FULL.md §4.5's per-entry consume steps:
// suppress a redundant redelivery, decode, invoke, and on failure either
// re-append with an incremented attempt count or move to the DLQ stream
// once MaxAttempts is reached.
func (c *Consumer) handleEntry(ctx context.Context, msg redis.XMessage) {
	metrics.RecordStreamConsume()

	if c.recent.IsDuplicate(c.stream + ":" + msg.ID) {
		_ = c.ack(ctx, msg.ID)
		return
	}

	rawEvent, _ := msg.Values["event"].(string)
	var e eventpkg.Event
	if err := json.Unmarshal([]byte(rawEvent), &e); err != nil {
		_ = c.moveToDLQ(ctx, msg, 0, "Invalid JSON")
		_ = c.ack(ctx, msg.ID)
		return
	}

	attempts := attemptsOf(msg.Values)

	if err := c.handler(ctx, &e); err == nil {
		_ = c.ack(ctx, msg.ID)
		return
	} else if attempts+1 >= MaxAttempts {
		_ = c.moveToDLQ(ctx, msg, attempts+1, err.Error())
		_ = c.ack(ctx, msg.ID)
	} else {
		_ = c.reAppend(ctx, msg, attempts+1, err.Error())
		_ = c.ack(ctx, msg.ID)
	}
}

func attemptsOf(values map[string]interface{}) int {
	raw, ok := values["attempts"]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (c *Consumer) ack(ctx context.Context, id string) error {
	return c.client.XAck(ctx, c.stream, ConsumerGroup, id).Err()
}

// reAppend re-adds the entry to the same stream with an incremented
// attempt count and the handler's error as last_error, per §9(d)'s note
// that Redis Streams entries are immutable and must be re-appended under
// a new entry ID rather than updated in place.
func (c *Consumer) reAppend(ctx context.Context, msg redis.XMessage, attempts int, lastError string) error {
	values := map[string]interface{}{
		"event":      msg.Values["event"],
		"timestamp":  msg.Values["timestamp"],
		"attempts":   attempts,
		"last_error": lastError,
	}
	return c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.stream,
		MaxLen: c.cfg.MaxLen,
		Approx: true,
		Values: values,
	}).Err()
}

// claimLoop periodically reclaims pending entries idle longer than
// cfg.IdleTimeout, recovering work abandoned by a crashed consumer.
func (c *Consumer) claimLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.ClaimInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.claimPending(ctx)
		}
	}
}

// claimPending implements §4.5's claim_pending: XPENDING filtered by
// idle time locates abandoned entries, XCLAIM reassigns them to this
// consumer, and any entry claimed three times or more (Redis's own
// per-entry delivery counter) is considered unrecoverable and moved to
// the DLQ stream instead of being reprocessed again.
func (c *Consumer) claimPending(ctx context.Context) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.stream,
		Group:  ConsumerGroup,
		Idle:   c.cfg.IdleTimeout,
		Start:  "-",
		End:    "+",
		Count:  c.cfg.ClaimLimit,
	}).Result()
	if err != nil || len(pending) == 0 {
		return
	}

	ids := make([]string, 0, len(pending))
	deliveries := make(map[string]int64, len(pending))
	for _, p := range pending {
		ids = append(ids, p.ID)
		deliveries[p.ID] = p.RetryCount
	}

	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.stream,
		Group:    ConsumerGroup,
		Consumer: c.id,
		MinIdle:  c.cfg.IdleTimeout,
		Messages: ids,
	}).Result()
	if err != nil {
		logging.Warn().Err(err).Str("stream", c.stream).Msg("claim pending entries failed")
		return
	}

	for _, msg := range claimed {
		if deliveries[msg.ID] >= int64(MaxAttempts) {
			_ = c.moveToDLQ(ctx, msg, int(deliveries[msg.ID]), "max delivery attempts exceeded")
			_ = c.ack(ctx, msg.ID)
			continue
		}
		c.handleEntry(ctx, msg)
	}
}

// moveToDLQ appends msg to StreamDLQ per §4.5's DLQ stream entry layout:
// the original event and attempt count alongside the provenance of the
// failure — which stream and entry it came from, why it failed, and when.
func (c *Consumer) moveToDLQ(ctx context.Context, msg redis.XMessage, attempts int, reason string) error {
	values := map[string]interface{}{
		"event":               msg.Values["event"],
		"timestamp":           msg.Values["timestamp"],
		"attempts":            attempts,
		"original_message_id": msg.ID,
		"original_stream":     c.stream,
		"error":               reason,
		"failed_at":           time.Now().UTC().Format(time.RFC3339),
	}
	return c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamDLQ,
		MaxLen: c.cfg.MaxLen,
		Approx: true,
		Values: values,
	}).Err()
}
