// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package services

import (
	"context"
	"fmt"
	"time"
)

// BrokerRunner interface matches the broker.Publisher/Subscriber pair's
// combined lifecycle.
//
// This interface allows the BrokerService to work with the broker package
// without importing it directly, avoiding circular dependencies.
//
// Satisfied by *broker.Components from internal/broker:
//   - Start(ctx context.Context) error - opens the JetStream connection,
//     ensures streams/consumers exist, and begins the watermill router
//   - Shutdown(ctx context.Context) - drains in-flight handlers and closes
//     the NATS connection
//   - IsRunning() bool
type BrokerRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// BrokerService wraps the event broker (publisher, subscriber, and
// watermill router) as a supervised service.
//
// It adapts the Start/Shutdown lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to open the JetStream connection and start routing
//  2. Waits for context cancellation
//  3. Calls Shutdown(ctx) for graceful drain
//
// Example usage:
//
//	components := broker.NewComponents(cfg, brokerBreaker, retryMgr, dlq, proc.Process)
//	svc := services.NewBrokerService(components)
//	tree.AddMessagingService(svc)
type BrokerService struct {
	broker          BrokerRunner
	shutdownTimeout time.Duration
	name            string
}

// NewBrokerService creates a new broker service wrapper with a default
// 10 second shutdown timeout.
func NewBrokerService(b BrokerRunner) *BrokerService {
	return NewBrokerServiceWithTimeout(b, 10*time.Second)
}

// NewBrokerServiceWithTimeout creates a broker service with a custom
// shutdown timeout.
func NewBrokerServiceWithTimeout(b BrokerRunner, shutdownTimeout time.Duration) *BrokerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &BrokerService{
		broker:          b,
		shutdownTimeout: shutdownTimeout,
		name:            "event-broker",
	}
}

// Serve implements suture.Service.
//
// If Start() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy. A broker that can't
// reach NATS on startup gets retried with suture's jittered backoff rather
// than killing the whole process.
func (s *BrokerService) Serve(ctx context.Context) error {
	if err := s.broker.Start(ctx); err != nil {
		return fmt.Errorf("event broker start failed: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.broker.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *BrokerService) String() string {
	return s.name
}
