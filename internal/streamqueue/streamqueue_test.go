// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package streamqueue

import (
	"context"
	"os"
	"testing"
	"time"

	eventpkg "github.com/tomtom215/cartographus/internal/event"
)

// testClient connects to the Redis instance named by CARTOGRAPHUS_TEST_REDIS_ADDR,
// skipping the test when the variable is unset so this suite doesn't require a
// live Redis server to run alongside the rest of the package.
func testClient(t *testing.T) *Config {
	t.Helper()
	addr := os.Getenv("CARTOGRAPHUS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CARTOGRAPHUS_TEST_REDIS_ADDR not set, skipping Redis-backed test")
	}
	cfg := DefaultConfig(addr)
	return &cfg
}

func TestStreamFor(t *testing.T) {
	high := &eventpkg.Event{Priority: 9}
	normal := &eventpkg.Event{Priority: 1}

	if got := streamFor(high); got != StreamHigh {
		t.Errorf("streamFor(high) = %q, want %q", got, StreamHigh)
	}
	if got := streamFor(normal); got != StreamNormal {
		t.Errorf("streamFor(normal) = %q, want %q", got, StreamNormal)
	}
}

func TestAttemptsOf(t *testing.T) {
	cases := []struct {
		values map[string]interface{}
		want   int
	}{
		{map[string]interface{}{"attempts": "2"}, 2},
		{map[string]interface{}{"attempts": int64(3)}, 3},
		{map[string]interface{}{}, 0},
		{map[string]interface{}{"attempts": "not-a-number"}, 0},
	}
	for _, c := range cases {
		if got := attemptsOf(c.values); got != c.want {
			t.Errorf("attemptsOf(%v) = %d, want %d", c.values, got, c.want)
		}
	}
}

func TestPublishConsume_RoundTrip(t *testing.T) {
	cfg := testClient(t)
	client, err := Connect(cfg.Addr)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := EnsureGroups(ctx, client); err != nil {
		t.Fatalf("EnsureGroups() error = %v", err)
	}

	pub := NewPublisher(client, *cfg)
	e := &eventpkg.Event{
		UserID:    "user-1",
		EventType: eventpkg.TypeView,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]interface{}{},
		Source:    eventpkg.SourceAPI,
	}
	if err := e.Prepare(); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if _, err := pub.Publish(ctx, e); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	received := make(chan *eventpkg.Event, 1)
	consumer := NewConsumer(client, *cfg, StreamNormal, func(_ context.Context, got *eventpkg.Event) error {
		received <- got
		return nil
	})

	runDone := make(chan error, 1)
	consumerCtx, consumerCancel := context.WithCancel(ctx)
	go func() { runDone <- consumer.Run(consumerCtx) }()

	select {
	case got := <-received:
		if got.ID != e.ID {
			t.Errorf("received event ID = %q, want %q", got.ID, e.ID)
		}
	case <-time.After(8 * time.Second):
		t.Fatal("handler never invoked")
	}

	consumerCancel()
	<-runDone
}
