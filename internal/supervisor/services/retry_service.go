// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package services

import (
	"context"
	"fmt"
)

// StartStopper matches the retry GC loop and dead-letter sweeper's
// Start/Stop lifecycle.
//
// Satisfied by:
//   - *retry.GCLoop from internal/retry: periodically compacts the
//     shared Badger value log backing idempotency, retry, and
//     dead-letter KV state
//   - *deadletter.Sweeper from internal/deadletter: pops due entries from
//     the time-wheel, republishes them, and sends any that fail to
//     republish through the dead-letter cascade
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// RetryCoordinatorService wraps the Badger value-log GC loop as a
// supervised service.
//
// Example usage:
//
//	gc := retry.NewGCLoop(db, cfg.Badger.GCInterval)
//	svc := services.NewRetryCoordinatorService(gc)
//	tree.AddDataService(svc)
type RetryCoordinatorService struct {
	coordinator StartStopper
	name        string
}

// NewRetryCoordinatorService creates a new retry GC loop service wrapper.
func NewRetryCoordinatorService(coordinator StartStopper) *RetryCoordinatorService {
	return &RetryCoordinatorService{
		coordinator: coordinator,
		name:        "retry-gc-loop",
	}
}

// Serve implements suture.Service.
func (s *RetryCoordinatorService) Serve(ctx context.Context) error {
	if err := s.coordinator.Start(ctx); err != nil {
		return fmt.Errorf("retry gc loop start failed: %w", err)
	}

	<-ctx.Done()

	s.coordinator.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *RetryCoordinatorService) String() string {
	return s.name
}

// DeadLetterSweeperService wraps the dead-letter time-wheel sweeper as a
// supervised service.
//
// The sweeper pops entries whose due-at timestamp has been reached from the
// in-memory min-heap and republishes them; an event whose republish fails
// is handed to the dead-letter cascade (Manager.Send).
//
// Example usage:
//
//	sweeper := deadletter.NewSweeper(dlqManager)
//	svc := services.NewDeadLetterSweeperService(sweeper)
//	tree.AddDataService(svc)
type DeadLetterSweeperService struct {
	sweeper StartStopper
	name    string
}

// NewDeadLetterSweeperService creates a new dead-letter sweeper service wrapper.
func NewDeadLetterSweeperService(sweeper StartStopper) *DeadLetterSweeperService {
	return &DeadLetterSweeperService{
		sweeper: sweeper,
		name:    "deadletter-sweeper",
	}
}

// Serve implements suture.Service.
func (s *DeadLetterSweeperService) Serve(ctx context.Context) error {
	if err := s.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("dead-letter sweeper start failed: %w", err)
	}

	<-ctx.Done()

	s.sweeper.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *DeadLetterSweeperService) String() string {
	return s.name
}
