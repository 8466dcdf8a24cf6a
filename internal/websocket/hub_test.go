// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package websocket

import (
	"context"
	"testing"
	"time"
)

func newTestClient(hub *Hub) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		send: make(chan Message, 16),
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	client := newTestClient(hub)
	hub.Register <- client

	deadline := time.After(time.Second)
	for hub.GetClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client was never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	hub.Unregister <- client

	for hub.GetClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("client was never unregistered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestHub_BroadcastHealthSnapshot(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	client := newTestClient(hub)
	hub.Register <- client

	deadline := time.After(time.Second)
	for hub.GetClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client was never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	hub.BroadcastHealthSnapshot(HealthSnapshot{
		QueueDepths:    map[string]int64{"events.normal": 3},
		DeadLetterSize: 0,
	})

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeHealthSnapshot {
			t.Errorf("message type = %q, want %q", msg.Type, MessageTypeHealthSnapshot)
		}
		snapshot, ok := msg.Data.(HealthSnapshot)
		if !ok {
			t.Fatalf("message data is %T, want HealthSnapshot", msg.Data)
		}
		if snapshot.QueueDepths["events.normal"] != 3 {
			t.Errorf("queue depth = %d, want 3", snapshot.QueueDepths["events.normal"])
		}
	case <-time.After(time.Second):
		t.Fatal("client did not receive broadcast")
	}

	cancel()
	<-done
}

func TestHub_BroadcastDeadLetter(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	client := newTestClient(hub)
	hub.Register <- client

	deadline := time.After(time.Second)
	for hub.GetClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client was never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	hub.BroadcastDeadLetter("evt-123", "max_retries_exhausted", "broker")

	select {
	case msg := <-client.send:
		data, ok := msg.Data.(DeadLetterData)
		if !ok {
			t.Fatalf("message data is %T, want DeadLetterData", msg.Data)
		}
		if data.EventID != "evt-123" {
			t.Errorf("event id = %q, want evt-123", data.EventID)
		}
	case <-time.After(time.Second):
		t.Fatal("client did not receive broadcast")
	}

	cancel()
	<-done
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	client := newTestClient(hub)
	hub.Register <- client

	deadline := time.After(time.Second)
	for hub.GetClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client was never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not shut down in time")
	}

	select {
	case _, open := <-client.send:
		if open {
			t.Error("client.send should be closed after shutdown")
		}
	default:
		t.Error("client.send should be closed, not empty-and-open")
	}
}
