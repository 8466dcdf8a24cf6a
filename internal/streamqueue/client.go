// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package streamqueue

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Connect builds a Redis client from addr, accepting either a bare
// host:port or a redis:// URL.
func Connect(addr string) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// EnsureGroups creates ConsumerGroup on every stream this adapter uses,
// starting at offset 0. BUSYGROUP (the group already exists) is treated
// as success, matching SPEC_FULL.md §4.5's idempotent group-creation
// requirement.
func EnsureGroups(ctx context.Context, client *redis.Client) error {
	for _, stream := range []string{StreamNormal, StreamHigh, StreamDLQ} {
		err := client.XGroupCreateMkStream(ctx, stream, ConsumerGroup, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("create group on %s: %w", stream, err)
		}
	}
	return nil
}

// consumerID returns `redis_consumer_<host>_<pid>`, the per-process
// consumer identity SPEC_FULL.md §4.5 specifies.
func consumerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("redis_consumer_%s_%d", host, os.Getpid())
}
