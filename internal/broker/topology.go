// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// EnsureTopology declares the three streams and two durable pull
// consumers idempotently: calling it on every startup is safe, whether
// the topology already exists or not.
func EnsureTopology(ctx context.Context, js jetstream.JetStream, cfg Config) error {
	streams := []jetstream.StreamConfig{
		{
			Name:        StreamNameHigh,
			Subjects:    []string{SubjectHigh},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      cfg.HighMaxAge,
			Storage:     jetstream.FileStorage,
			Discard:     jetstream.DiscardOld,
			AllowDirect: true,
		},
		{
			Name:        StreamNameNormal,
			Subjects:    []string{SubjectNormal},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      cfg.NormalMaxAge,
			Storage:     jetstream.FileStorage,
			Discard:     jetstream.DiscardOld,
			AllowDirect: true,
		},
		{
			Name:        StreamNameDeadLetter,
			Subjects:    []string{SubjectDeadLetter},
			Retention:   jetstream.LimitsPolicy,
			Storage:     jetstream.FileStorage,
			AllowDirect: true,
		},
	}

	for _, streamCfg := range streams {
		if err := ensureStream(ctx, js, streamCfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", streamCfg.Name, err)
		}
	}

	consumers := []struct {
		stream string
		name   string
	}{
		{StreamNameHigh, ConsumerNameHigh},
		{StreamNameNormal, ConsumerNameNormal},
	}
	for _, c := range consumers {
		consumerCfg := jetstream.ConsumerConfig{
			Durable:       c.name,
			AckPolicy:     jetstream.AckExplicitPolicy,
			MaxDeliver:    cfg.MaxDeliver,
			AckWait:       cfg.AckWait,
			MaxAckPending: cfg.MaxAckPending,
		}
		if _, err := js.CreateOrUpdateConsumer(ctx, c.stream, consumerCfg); err != nil {
			return fmt.Errorf("ensure consumer %s on %s: %w", c.name, c.stream, err)
		}
	}

	return nil
}

// ensureStream creates streamCfg's stream if absent, or updates it in
// place if it already exists, mirroring the teacher's
// get-then-create-or-update idiom.
func ensureStream(ctx context.Context, js jetstream.JetStream, streamCfg jetstream.StreamConfig) error {
	_, err := js.Stream(ctx, streamCfg.Name)
	if err == nil {
		_, err = js.UpdateStream(ctx, streamCfg)
		return err
	}
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		_, err = js.CreateStream(ctx, streamCfg)
		return err
	}
	return err
}
