// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadWithKoanf_Defaults(t *testing.T) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 3857 {
		t.Errorf("Server.Port = %d, want 3857", cfg.Server.Port)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("Retry.MaxRetries = %d, want 5", cfg.Retry.MaxRetries)
	}
	if cfg.Broker.MaxDeliver != 6 {
		t.Errorf("Broker.MaxDeliver = %d, want 6", cfg.Broker.MaxDeliver)
	}
	if cfg.Retry.InitialDelay != time.Second {
		t.Errorf("Retry.InitialDelay = %v, want 1s", cfg.Retry.InitialDelay)
	}
}

func TestLoadWithKoanf_EnvOverride(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("NATS_URL", "nats://broker.internal:4222")
	t.Setenv("MAX_RETRIES", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Broker.URL != "nats://broker.internal:4222" {
		t.Errorf("Broker.URL = %q, want nats://broker.internal:4222", cfg.Broker.URL)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("Retry.MaxRetries = %d, want 3", cfg.Retry.MaxRetries)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Fatalf("Server.CORSOrigins = %v, want 2 entries", cfg.Server.CORSOrigins)
	}
}

func TestEnvTransformFunc_UnmappedKeyIgnored(t *testing.T) {
	if got := envTransformFunc("SOME_RANDOM_VAR"); got != "" {
		t.Errorf("envTransformFunc(SOME_RANDOM_VAR) = %q, want empty string", got)
	}
}

func TestFindConfigFile_EnvOverride(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer tmp.Close()

	t.Setenv(ConfigPathEnvVar, tmp.Name())

	if got := findConfigFile(); got != tmp.Name() {
		t.Errorf("findConfigFile() = %q, want %q", got, tmp.Name())
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaultConfig() should be valid, got error: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }},
		{"empty broker url", func(c *Config) { c.Broker.URL = "" }},
		{"zero max deliver", func(c *Config) { c.Broker.MaxDeliver = 0 }},
		{"backoff multiplier too low", func(c *Config) { c.Retry.BackoffMultiplier = 1 }},
		{"jitter fraction out of range", func(c *Config) { c.Retry.JitterFraction = 1.5 }},
		{"no dead-letter queues", func(c *Config) { c.DeadLetter.CascadeQueues = nil }},
		{"bad logging format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
