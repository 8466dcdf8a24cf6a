// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package config provides centralized, layered configuration loading for the
ingestion pipeline.

# Configuration Sources

Configuration is merged from three layers, in ascending precedence:

  1. Built-in defaults (defaultConfig)
  2. An optional YAML file (config.yaml, or $CONFIG_PATH)
  3. Environment variables

# Configuration Structure

  - ServerConfig: ingest façade HTTP listener (C8)
  - BrokerConfig: NATS JetStream priority broker (C4)
  - StreamConfig: Redis Streams fallback consumer (C5)
  - StoreConfig: DuckDB event store (C9)
  - BadgerConfig: embedded KV store backing idempotency/retry/dead-letter state
  - BreakerConfig: per-resource circuit breaker thresholds (C2)
  - RetryConfig: exponential-backoff-with-jitter schedule (C3)
  - DeadLetterConfig: cascading dead-letter manager (C7)
  - SupervisorConfig: worker supervision exit triggers (C10)
  - LoggingConfig: process-wide zerolog logger

# Usage Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}
	fmt.Printf("listening on %s:%d\n", cfg.Server.Host, cfg.Server.Port)

# Validation

Config.Validate() rejects configuration that would compile and start but
produce broken behavior at runtime: an out-of-range port, an empty broker
URL, a dead-letter cascade with no queues, and so on.

# Thread Safety

The Config struct is immutable after LoadWithKoanf returns, making it safe
for concurrent access from multiple goroutines without synchronization.
*/
package config
