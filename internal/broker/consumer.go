// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package broker

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go/jetstream"

	eventpkg "github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// Handler processes one decoded event delivered by the consumer.
type Handler func(ctx context.Context, e *eventpkg.Event) error

// RetryCoordinator is the subset of internal/retry's Manager the
// consumer needs, defined here (rather than imported concretely) so this
// package has no dependency on internal/retry's storage choice.
type RetryCoordinator interface {
	ShouldRetry(eventID string) (bool, error)
	Increment(eventID, eventType string) (int, error)
	Clear(eventID string) error
	Delay(attempt int) time.Duration
}

// DeadLetterSink is the subset of internal/deadletter's manager the
// consumer needs to hand off an event that exhausted its retry budget or
// failed to decode, or to schedule a delayed redelivery for one that
// hasn't.
type DeadLetterSink interface {
	Send(ctx context.Context, e *eventpkg.Event, reason string) error
	ScheduleRetry(e *eventpkg.Event, delay time.Duration) error
}

// Consumer pulls messages from one JetStream consumer and dispatches
// them to Handler, coordinating retries and dead-lettering per
// SPEC_FULL.md §4.4's consume algorithm.
type Consumer struct {
	consumer jetstream.Consumer
	subject  string
	cfg      Config
	retry    RetryCoordinator
	dlq      DeadLetterSink
	handler  Handler
}

// consumerTag returns the consumer tag `event_consumer_<host>_<pid>`
// SPEC_FULL.md §4.4 specifies for deterministic cancellation/stats
// attribution.
func consumerTag() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("event_consumer_%s_%d", host, os.Getpid())
}

// NewConsumer binds to the durable consumer named consumerName on
// stream, returning a Consumer ready to Run.
func NewConsumer(ctx context.Context, js jetstream.JetStream, streamName, consumerName, subject string, cfg Config, retryCoord RetryCoordinator, dlq DeadLetterSink, handler Handler) (*Consumer, error) {
	stream, err := js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("get stream %s: %w", streamName, err)
	}
	consumer, err := stream.Consumer(ctx, consumerName)
	if err != nil {
		return nil, fmt.Errorf("get consumer %s: %w", consumerName, err)
	}
	return &Consumer{
		consumer: consumer,
		subject:  subject,
		cfg:      cfg,
		retry:    retryCoord,
		dlq:      dlq,
		handler:  handler,
	}, nil
}

// Run fetches and processes messages in a loop until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := c.consumer.Fetch(c.cfg.FetchBatch, jetstream.FetchMaxWait(c.cfg.FetchMaxWait))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		for msg := range batch.Messages() {
			c.handleDelivery(ctx, msg)
		}
		if err := batch.Error(); err != nil && ctx.Err() == nil {
			continue
		}
	}
}

// handleDelivery implements the four-step consume algorithm from
// SPEC_FULL.md §4.4: decode, inspect retry count, invoke the handler,
// and act on its outcome.
func (c *Consumer) handleDelivery(ctx context.Context, msg jetstream.Msg) {
	metrics.RecordBrokerConsume(c.subject)

	var e eventpkg.Event
	if err := json.Unmarshal(msg.Data(), &e); err != nil {
		_ = c.dlq.Send(ctx, &e, "Invalid JSON")
		_ = msg.Ack()
		return
	}

	retryCount := 0
	if v := msg.Headers().Get("x-retry-count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			retryCount = n
		}
	}

	if retryCount > 0 {
		shouldRetry, err := c.retry.ShouldRetry(e.ID)
		if err == nil && !shouldRetry {
			_ = c.dlq.Send(ctx, &e, "max_retries_exhausted")
			_ = msg.Ack()
			return
		}
	}

	err := c.handler(ctx, &e)
	if err == nil {
		if retryCount > 0 {
			_ = c.retry.Clear(e.ID)
		}
		_ = msg.Ack()
		return
	}

	shouldRetry, retryErr := c.retry.ShouldRetry(e.ID)
	if retryErr == nil && shouldRetry {
		count, incErr := c.retry.Increment(e.ID, string(e.EventType))
		if incErr == nil {
			e.IncrementRetry(err)
			if schedErr := c.dlq.ScheduleRetry(&e, c.retry.Delay(count)); schedErr == nil {
				_ = msg.Ack()
				return
			}
		}
	}

	_ = c.dlq.Send(ctx, &e, err.Error())
	_ = msg.Ack()
}
