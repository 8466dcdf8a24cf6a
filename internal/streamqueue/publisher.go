// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package streamqueue

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	eventpkg "github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// Publisher appends events to the stream matching their priority.
type Publisher struct {
	client *redis.Client
	cfg    Config
}

// NewPublisher wraps client for publishing.
func NewPublisher(client *redis.Client, cfg Config) *Publisher {
	return &Publisher{client: client, cfg: cfg}
}

func streamFor(e *eventpkg.Event) string {
	if eventpkg.IsHighPriority(e.Priority) {
		return StreamHigh
	}
	return StreamNormal
}

// Publish appends e's JSON snapshot to its priority stream with
// MAXLEN ~ Config.MaxLen trimming, returning the assigned entry ID.
func (p *Publisher) Publish(ctx context.Context, e *eventpkg.Event) (string, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return "", err
	}

	stream := streamFor(e)
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.cfg.MaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event":     string(body),
			"timestamp": time.Now().UTC().Unix(),
			"attempts":  0,
		},
	}).Result()
	if err != nil {
		return "", eventpkg.NewStreamUnavailableError(err)
	}

	metrics.RecordStreamPublish()
	return id, nil
}
