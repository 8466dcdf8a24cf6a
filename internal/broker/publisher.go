// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package broker

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cartographus/internal/breaker"
	eventpkg "github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// ErrPublisherClosed is returned by Publish once Close has been called.
var ErrPublisherClosed = errors.New("broker: publisher closed")

// Publisher publishes events onto the broker's priority subjects through
// a Watermill NATS publisher, guarded by a breaker and a token-bucket
// rate limiter.
type Publisher struct {
	publisher message.Publisher
	breaker   *breaker.Breaker
	limiter   *rate.Limiter

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects to cfg.URL and returns a Publisher with
// JetStream message-ID deduplication enabled. breaker is shared with the
// caller so its state reflects every publish, not just this adapter's.
func NewPublisher(cfg Config, br *breaker.Breaker, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	wmConfig := wmNats.PublisherConfig{
		URL:       cfg.URL,
		Marshaler: &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    cfg.EnableTrackMsgID,
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		publisher: pub,
		breaker:   br,
		limiter:   rate.NewLimiter(rate.Limit(cfg.PublishRatePerSecond), cfg.PublishBurst),
	}, nil
}

// subjectFor returns the JetStream subject an event belongs on: high
// priority (>=8) goes to SubjectHigh, everything else to SubjectNormal.
func subjectFor(e *eventpkg.Event) string {
	if eventpkg.IsHighPriority(e.Priority) {
		return SubjectHigh
	}
	return SubjectNormal
}

// Publish serializes e and publishes it to the subject matching its
// priority. Nats-Msg-Id is set to e.ID for JetStream's dedup window;
// x-event-type, x-priority, x-user-id, and x-retry-count headers are
// attached for the consumer to inspect without a full body decode.
func (p *Publisher) Publish(ctx context.Context, e *eventpkg.Event) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return eventpkg.NewBrokerUnavailableError(ErrPublisherClosed)
	}
	p.mu.RUnlock()

	if err := p.limiter.Wait(ctx); err != nil {
		return eventpkg.NewBrokerUnavailableError(err)
	}

	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := message.NewMessage(e.ID, body)
	msg.Metadata.Set(natsgo.MsgIdHdr, e.ID)
	msg.Metadata.Set("x-event-type", string(e.EventType))
	msg.Metadata.Set("x-priority", strconv.Itoa(e.Priority))
	msg.Metadata.Set("x-user-id", e.UserID)
	msg.Metadata.Set("x-retry-count", strconv.Itoa(e.RetryCount))

	subject := subjectFor(e)

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(subject, msg)
	})
	if err != nil {
		return eventpkg.NewBrokerUnavailableError(err)
	}

	metrics.RecordBrokerPublish(subject)
	return nil
}

// PublishRaw publishes e to subject directly rather than routing by
// priority, attaching extraHeaders alongside the standard
// x-event-type/x-priority/x-user-id/x-retry-count set. internal/deadletter
// uses this to deliver onto SubjectDeadLetter with x-original-queue/x-error
// context that priority-routed Publish has no reason to set.
func (p *Publisher) PublishRaw(ctx context.Context, subject string, e *eventpkg.Event, extraHeaders map[string]string) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return eventpkg.NewBrokerUnavailableError(ErrPublisherClosed)
	}
	p.mu.RUnlock()

	if err := p.limiter.Wait(ctx); err != nil {
		return eventpkg.NewBrokerUnavailableError(err)
	}

	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := message.NewMessage(e.ID, body)
	msg.Metadata.Set(natsgo.MsgIdHdr, e.ID)
	msg.Metadata.Set("x-event-type", string(e.EventType))
	msg.Metadata.Set("x-priority", strconv.Itoa(e.Priority))
	msg.Metadata.Set("x-user-id", e.UserID)
	msg.Metadata.Set("x-retry-count", strconv.Itoa(e.RetryCount))
	for k, v := range extraHeaders {
		msg.Metadata.Set(k, v)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(subject, msg)
	})
	if err != nil {
		return eventpkg.NewBrokerUnavailableError(err)
	}

	metrics.RecordBrokerPublish(subject)
	return nil
}

// Close shuts down the underlying Watermill publisher and its NATS
// connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
