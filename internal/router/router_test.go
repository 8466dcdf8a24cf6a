// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package router

import (
	"testing"

	"github.com/tomtom215/cartographus/internal/event"
)

func TestRoute_HighPriorityEventType(t *testing.T) {
	e := &event.Event{EventType: event.TypeSubscription, Priority: 1, Payload: map[string]interface{}{}}
	if got := Route(e); got != PriorityHighClass {
		t.Errorf("Route() = %q, want %q", got, PriorityHighClass)
	}
}

func TestRoute_HighPriorityByExplicitPriority(t *testing.T) {
	e := &event.Event{EventType: event.TypeClick, Priority: 8, Payload: map[string]interface{}{}}
	if got := Route(e); got != PriorityHighClass {
		t.Errorf("Route() = %q, want %q", got, PriorityHighClass)
	}
}

func TestRoute_HighPriorityByLargePurchaseAmount(t *testing.T) {
	e := &event.Event{
		EventType: event.TypePurchase,
		Priority:  1,
		Payload:   map[string]interface{}{"amount": float64(150), "currency": "USD"},
	}
	if got := Route(e); got != PriorityHighClass {
		t.Errorf("Route() = %q, want %q", got, PriorityHighClass)
	}
}

func TestRoute_NormalPriority(t *testing.T) {
	e := &event.Event{
		EventType: event.TypePurchase,
		Priority:  1,
		Payload:   map[string]interface{}{"amount": float64(5), "currency": "USD"},
	}
	if got := Route(e); got != PriorityNormalClass {
		t.Errorf("Route() = %q, want %q", got, PriorityNormalClass)
	}
}

func TestRoute_NormalPriorityClick(t *testing.T) {
	e := &event.Event{EventType: event.TypeClick, Priority: 1, Payload: map[string]interface{}{}}
	if got := Route(e); got != PriorityNormalClass {
		t.Errorf("Route() = %q, want %q", got, PriorityNormalClass)
	}
}
