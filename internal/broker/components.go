// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package broker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/cartographus/internal/breaker"
	"github.com/tomtom215/cartographus/internal/logging"
)

// Components aggregates the NATS connection, topology, Publisher, and the
// two priority-class Consumers into one unit with the Start/Shutdown/
// IsRunning lifecycle internal/supervisor/services.BrokerService expects.
type Components struct {
	cfg     Config
	breaker *breaker.Breaker
	handler Handler
	retry   RetryCoordinator
	dlq     DeadLetterSink

	Publisher *Publisher

	conn *natsgo.Conn
	js   jetstream.JetStream

	running atomic.Bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewComponents builds Components without connecting. Call Start to
// open the JetStream connection, ensure topology, and begin consuming.
func NewComponents(cfg Config, br *breaker.Breaker, retry RetryCoordinator, dlq DeadLetterSink, handler Handler) *Components {
	return &Components{cfg: cfg, breaker: br, retry: retry, dlq: dlq, handler: handler}
}

// Start connects to NATS, declares topology, builds the Publisher, and
// launches one consumer goroutine per priority class.
func (c *Components) Start(ctx context.Context) error {
	conn, err := natsgo.Connect(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("create jetstream context: %w", err)
	}
	if err := EnsureTopology(ctx, js, c.cfg); err != nil {
		conn.Close()
		return fmt.Errorf("ensure topology: %w", err)
	}

	pub, err := NewPublisher(c.cfg, c.breaker, watermill.NewStdLogger(false, false))
	if err != nil {
		conn.Close()
		return fmt.Errorf("create publisher: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.conn = conn
	c.js = js
	c.Publisher = pub
	c.cancel = cancel

	consumers := []struct {
		stream, name, subject string
	}{
		{StreamNameHigh, ConsumerNameHigh, SubjectHigh},
		{StreamNameNormal, ConsumerNameNormal, SubjectNormal},
	}
	for _, spec := range consumers {
		consumer, err := NewConsumer(ctx, js, spec.stream, spec.name, spec.subject, c.cfg, c.retry, c.dlq, c.handler)
		if err != nil {
			cancel()
			conn.Close()
			return fmt.Errorf("build consumer %s: %w", spec.name, err)
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := consumer.Run(runCtx); err != nil && runCtx.Err() == nil {
				logging.Error().Err(err).Str("consumer", spec.name).Msg("broker consumer exited")
			}
		}()
	}

	c.running.Store(true)
	return nil
}

// Shutdown cancels the consumer loops, waits for them to drain, and
// closes the Publisher and NATS connection.
func (c *Components) Shutdown(ctx context.Context) {
	if !c.running.Load() {
		return
	}
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.running.Store(false)
}

// IsRunning reports whether Start has succeeded and Shutdown has not yet
// completed.
func (c *Components) IsRunning() bool {
	return c.running.Load()
}
