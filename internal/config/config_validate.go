// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "fmt"

// Validate checks the loaded configuration for values that would produce
// broken behavior at runtime rather than a clean startup failure.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Broker.URL == "" {
		return fmt.Errorf("broker.url must not be empty")
	}
	if c.Broker.MaxDeliver < 1 {
		return fmt.Errorf("broker.max_deliver must be at least 1, got %d", c.Broker.MaxDeliver)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.BackoffMultiplier <= 1.0 {
		return fmt.Errorf("retry.backoff_multiplier must be greater than 1.0, got %f", c.Retry.BackoffMultiplier)
	}
	if c.Retry.JitterFraction < 0 || c.Retry.JitterFraction > 1 {
		return fmt.Errorf("retry.jitter_fraction must be between 0 and 1, got %f", c.Retry.JitterFraction)
	}
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("breaker.failure_threshold must be greater than 0")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if len(c.DeadLetter.CascadeQueues) == 0 {
		return fmt.Errorf("deadletter.cascade_queues must list at least one queue")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
