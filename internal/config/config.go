// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "time"

// Config is the root configuration for the ingestion pipeline. Every
// component-specific section carries its own defaults, applied by
// defaultConfig() before the file and environment layers are merged in.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Broker     BrokerConfig     `koanf:"broker"`
	Stream     StreamConfig     `koanf:"stream"`
	Store      StoreConfig      `koanf:"store"`
	Badger     BadgerConfig     `koanf:"badger"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Retry      RetryConfig      `koanf:"retry"`
	DeadLetter DeadLetterConfig `koanf:"deadletter"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig configures the ingest façade's HTTP listener (C8).
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimitRPS    float64       `koanf:"rate_limit_rps"`
	RateLimitBurst  int           `koanf:"rate_limit_burst"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// BrokerConfig configures the NATS JetStream-backed priority broker (C4).
type BrokerConfig struct {
	URL                   string        `koanf:"url"`
	EmbeddedServer        bool          `koanf:"embedded_server"`
	StoreDir              string        `koanf:"store_dir"`
	MaxMemory             int64         `koanf:"max_memory"`
	MaxStore              int64         `koanf:"max_store"`
	StreamRetention       time.Duration `koanf:"stream_retention"`
	HighPrioritySubject   string        `koanf:"high_priority_subject"`
	NormalPrioritySubject string        `koanf:"normal_priority_subject"`
	DeadLetterSubject     string        `koanf:"dead_letter_subject"`
	DurableNamePrefix     string        `koanf:"durable_name_prefix"`
	QueueGroup            string        `koanf:"queue_group"`
	MaxDeliver            int           `koanf:"max_deliver"`
	AckWait               time.Duration `koanf:"ack_wait"`
	MaxAckPending         int           `koanf:"max_ack_pending"`
	PublishRateLimit      float64       `koanf:"publish_rate_limit"`
	PublishBurst          int           `koanf:"publish_burst"`
}

// StreamConfig configures the Redis Streams fallback consumer (C5).
type StreamConfig struct {
	URL           string        `koanf:"url"`
	StreamKey     string        `koanf:"stream_key"`
	ConsumerGroup string        `koanf:"consumer_group"`
	ConsumerName  string        `koanf:"consumer_name"`
	BlockTimeout  time.Duration `koanf:"block_timeout"`
	BatchSize     int64         `koanf:"batch_size"`
	ClaimMinIdle  time.Duration `koanf:"claim_min_idle"`
}

// StoreConfig configures the DuckDB-backed event store (C9).
type StoreConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// BadgerConfig configures the embedded key-value store backing idempotency
// records, retry counters, and the dead-letter KV backup. Circuit breaker
// state is not stored there; each breaker keeps it in process memory.
type BadgerConfig struct {
	Path              string        `koanf:"path"`
	GCInterval        time.Duration `koanf:"gc_interval"`
	IdempotencyTTL    time.Duration `koanf:"idempotency_ttl"`
	RetryCounterTTL   time.Duration `koanf:"retry_counter_ttl"`
}

// BreakerConfig configures the per-resource circuit breakers (C2). Queue*
// fields hold the looser thresholds the spec assigns to queue resources as
// opposed to API/database resources.
type BreakerConfig struct {
	FailureThreshold      uint32        `koanf:"failure_threshold"`
	SuccessThreshold      uint32        `koanf:"success_threshold"`
	QueueFailureThreshold uint32        `koanf:"queue_failure_threshold"`
	QueueSuccessThreshold uint32        `koanf:"queue_success_threshold"`
	OpenTimeout           time.Duration `koanf:"open_timeout"`
	HalfOpenTimeout       time.Duration `koanf:"half_open_timeout"`
}

// RetryConfig configures the exponential-backoff-with-jitter schedule (C3).
type RetryConfig struct {
	MaxRetries        int           `koanf:"max_retries"`
	InitialDelay      time.Duration `koanf:"initial_delay"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier"`
	MaxDelay          time.Duration `koanf:"max_delay"`
	JitterFraction    float64       `koanf:"jitter_fraction"`
}

// DeadLetterConfig configures the cascading dead-letter manager (C7).
type DeadLetterConfig struct {
	CascadeQueues  []string      `koanf:"cascade_queues"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
	FileBackupPath string        `koanf:"file_backup_path"`
}

// SupervisorConfig configures the suture-based worker supervision tree (C10).
type SupervisorConfig struct {
	MaxMemoryBytes      uint64        `koanf:"max_memory_bytes"`
	MaxUptime           time.Duration `koanf:"max_uptime"`
	ShutdownFlagFile    string        `koanf:"shutdown_flag_file"`
	HealthCheckInterval time.Duration `koanf:"health_check_interval"`
}

// LoggingConfig configures the process-wide zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
