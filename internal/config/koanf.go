// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cartographus/config.yaml",
	"/etc/cartographus/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3857,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    1000,
			RateLimitBurst:  2000,
			CORSOrigins:     []string{"*"},
		},
		Broker: BrokerConfig{
			URL:                   "nats://127.0.0.1:4222",
			EmbeddedServer:        true,
			StoreDir:              "/data/nats/jetstream",
			MaxMemory:             1 << 30,  // 1GB
			MaxStore:              10 << 30, // 10GB
			StreamRetention:       7 * 24 * time.Hour,
			HighPrioritySubject:   "events.high",
			NormalPrioritySubject: "events.normal",
			DeadLetterSubject:     "events.deadletter",
			DurableNamePrefix:     "event_consumer",
			QueueGroup:            "processors",
			MaxDeliver:            6, // MAX_RETRIES (5) + 1
			AckWait:               30 * time.Second,
			MaxAckPending:         1000,
			PublishRateLimit:      500,
			PublishBurst:          1000,
		},
		Stream: StreamConfig{
			URL:           "redis://127.0.0.1:6379",
			StreamKey:     "events:stream",
			ConsumerGroup: "processors",
			ConsumerName:  "", // auto-generated from hostname+pid if empty
			BlockTimeout:  5 * time.Second,
			BatchSize:     100,
			ClaimMinIdle:  30 * time.Second,
		},
		Store: StoreConfig{
			Path:                   "/data/cartographus.duckdb",
			MaxMemory:              "2GB",
			Threads:                0, // 0 = runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		Badger: BadgerConfig{
			Path:            "/data/badger",
			GCInterval:      10 * time.Minute,
			IdempotencyTTL:  24 * time.Hour,
			RetryCounterTTL: 24 * time.Hour,
		},
		Breaker: BreakerConfig{
			FailureThreshold:      5,
			SuccessThreshold:      3,
			QueueFailureThreshold: 10,
			QueueSuccessThreshold: 5,
			OpenTimeout:           60 * time.Second,
			HalfOpenTimeout:       30 * time.Second,
		},
		Retry: RetryConfig{
			MaxRetries:        5,
			InitialDelay:      1 * time.Second,
			BackoffMultiplier: 2,
			MaxDelay:          60 * time.Second,
			JitterFraction:    0.2,
		},
		DeadLetter: DeadLetterConfig{
			CascadeQueues:  []string{"broker", "stream", "kv", "file"},
			SweepInterval:  1 * time.Second,
			FileBackupPath: "/data/deadletter",
		},
		Supervisor: SupervisorConfig{
			MaxMemoryBytes:      0, // 0 = unlimited
			MaxUptime:           0, // 0 = unlimited
			ShutdownFlagFile:    "",
			HealthCheckInterval: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"deadletter.cascade_queues",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - NATS_URL -> broker.url
//   - REDIS_URL -> stream.url
//   - DUCKDB_PATH -> store.path
//   - MAX_RETRIES -> retry.max_retries
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server / ingest façade
		"http_host":           "server.host",
		"http_port":           "server.port",
		"http_read_timeout":   "server.read_timeout",
		"http_write_timeout":  "server.write_timeout",
		"http_idle_timeout":   "server.idle_timeout",
		"http_shutdown_grace": "server.shutdown_timeout",
		"rate_limit_rps":      "server.rate_limit_rps",
		"rate_limit_burst":    "server.rate_limit_burst",
		"cors_origins":        "server.cors_origins",

		// Broker (NATS JetStream)
		"nats_url":              "broker.url",
		"nats_embedded":         "broker.embedded_server",
		"nats_store_dir":        "broker.store_dir",
		"nats_max_memory":       "broker.max_memory",
		"nats_max_store":        "broker.max_store",
		"nats_stream_retention": "broker.stream_retention",
		"nats_high_subject":     "broker.high_priority_subject",
		"nats_normal_subject":   "broker.normal_priority_subject",
		"nats_dlq_subject":      "broker.dead_letter_subject",
		"nats_durable_prefix":   "broker.durable_name_prefix",
		"nats_queue_group":      "broker.queue_group",
		"nats_max_deliver":      "broker.max_deliver",
		"nats_ack_wait":         "broker.ack_wait",
		"nats_max_ack_pending":  "broker.max_ack_pending",
		"publish_rate_limit":    "broker.publish_rate_limit",
		"publish_burst":         "broker.publish_burst",

		// Stream (Redis Streams)
		"redis_url":            "stream.url",
		"redis_stream_key":     "stream.stream_key",
		"redis_consumer_group": "stream.consumer_group",
		"redis_consumer_name":  "stream.consumer_name",
		"redis_block_timeout":  "stream.block_timeout",
		"redis_batch_size":     "stream.batch_size",
		"redis_claim_min_idle": "stream.claim_min_idle",

		// Store (DuckDB)
		"duckdb_path":           "store.path",
		"duckdb_max_memory":     "store.max_memory",
		"duckdb_threads":        "store.threads",
		"duckdb_insertion_order": "store.preserve_insertion_order",

		// Badger
		"badger_path":              "badger.path",
		"badger_gc_interval":       "badger.gc_interval",
		"idempotency_ttl":          "badger.idempotency_ttl",
		"retry_counter_ttl":        "badger.retry_counter_ttl",

		// Breaker
		"breaker_failure_threshold":       "breaker.failure_threshold",
		"breaker_success_threshold":       "breaker.success_threshold",
		"breaker_queue_failure_threshold": "breaker.queue_failure_threshold",
		"breaker_queue_success_threshold": "breaker.queue_success_threshold",
		"breaker_open_timeout":            "breaker.open_timeout",
		"breaker_half_open_timeout":       "breaker.half_open_timeout",

		// Retry
		"max_retries":        "retry.max_retries",
		"retry_initial_delay": "retry.initial_delay",
		"retry_backoff_multiplier": "retry.backoff_multiplier",
		"retry_max_delay":    "retry.max_delay",
		"retry_jitter_fraction": "retry.jitter_fraction",

		// Dead-letter
		"dlq_cascade_queues":  "deadletter.cascade_queues",
		"dlq_sweep_interval":  "deadletter.sweep_interval",
		"dlq_file_backup_path": "deadletter.file_backup_path",

		// Supervisor
		"max_memory_bytes":       "supervisor.max_memory_bytes",
		"max_uptime":             "supervisor.max_uptime",
		"shutdown_flag_file":     "supervisor.shutdown_flag_file",
		"health_check_interval":  "supervisor.health_check_interval",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them.
	// This prevents random environment variables from polluting config.
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: the caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
