// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package event

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validPurchaseEvent() Event {
	return Event{
		UserID:    uuid.New().String(),
		EventType: TypePurchase,
		Timestamp: time.Now().UTC(),
		Payload: map[string]interface{}{
			"amount":   float64(19.99),
			"currency": "USD",
		},
		Source: SourceAPI,
	}
}

func TestDerivePriority(t *testing.T) {
	cases := map[Type]int{
		TypePurchase:     PriorityHigh,
		TypeSubscription: PriorityHigh,
		TypePayment:      PriorityHigh,
		TypeLogin:        PriorityMedium,
		TypeLogout:       PriorityMedium,
		TypeSignup:       PriorityMedium,
		TypeClick:        PriorityLow,
		TypeView:         PriorityLow,
		TypeCustom:       PriorityLow,
	}
	for eventType, want := range cases {
		if got := DerivePriority(eventType); got != want {
			t.Errorf("DerivePriority(%q) = %d, want %d", eventType, got, want)
		}
	}
}

func TestIsHighPriority(t *testing.T) {
	if !IsHighPriority(8) || !IsHighPriority(9) || !IsHighPriority(10) {
		t.Error("priorities 8-10 must be high priority")
	}
	if IsHighPriority(7) || IsHighPriority(0) {
		t.Error("priorities below 8 must not be high priority")
	}
}

func TestPrepare_AssignsIDAndDerivedPriority(t *testing.T) {
	e := validPurchaseEvent()
	if err := e.Prepare(); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		t.Errorf("Prepare() did not assign a valid UUID: %v", err)
	}
	if e.Priority != PriorityHigh {
		t.Errorf("Priority = %d, want %d (derived from purchase)", e.Priority, PriorityHigh)
	}
	if e.Status != StatusPending {
		t.Errorf("Status = %q, want %q", e.Status, StatusPending)
	}
}

func TestPrepare_ExplicitPrioritySurvives(t *testing.T) {
	e := validPurchaseEvent()
	e.SetPriority(3)
	if err := e.Prepare(); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if e.Priority != 3 {
		t.Errorf("Priority = %d, want 3 (explicit value must not be overwritten)", e.Priority)
	}
}

func TestPrepare_KeepsSuppliedID(t *testing.T) {
	e := validPurchaseEvent()
	e.ID = uuid.New().String()
	want := e.ID
	if err := e.Prepare(); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if e.ID != want {
		t.Errorf("Prepare() overwrote a supplied ID: got %q, want %q", e.ID, want)
	}
}

func TestValidate_ValidPurchaseEvent(t *testing.T) {
	e := validPurchaseEvent()
	if err := e.Prepare(); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_PurchaseMissingAmount(t *testing.T) {
	e := validPurchaseEvent()
	delete(e.Payload, "amount")
	_ = e.Prepare()

	err := e.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error for missing purchase amount")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Validate() error type = %T, want *ValidationError", err)
	}
}

func TestValidate_PurchaseNonPositiveAmount(t *testing.T) {
	e := validPurchaseEvent()
	e.Payload["amount"] = float64(0)
	_ = e.Prepare()

	if err := e.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for non-positive amount")
	}
}

func TestValidate_PurchaseBadCurrencyLength(t *testing.T) {
	e := validPurchaseEvent()
	e.Payload["currency"] = "US"
	_ = e.Prepare()

	if err := e.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for malformed currency")
	}
}

func TestValidate_NonPurchaseEventIgnoresPayloadRule(t *testing.T) {
	e := Event{
		UserID:    uuid.New().String(),
		EventType: TypeClick,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]interface{}{"page": "/home"},
		Source:    SourceAPI,
	}
	_ = e.Prepare()
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for non-purchase event", err)
	}
}

func TestValidate_UnknownEventTypeRejected(t *testing.T) {
	e := validPurchaseEvent()
	e.EventType = Type("not-a-real-type")
	_ = e.Prepare()

	if err := e.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for unknown event type")
	}
}

func TestValidate_FutureTimestampRejected(t *testing.T) {
	e := validPurchaseEvent()
	e.Timestamp = time.Now().UTC().Add(time.Hour)
	_ = e.Prepare()

	if err := e.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for future timestamp")
	}
}

func TestValidate_BrokerSourceRequiresQueueInfo(t *testing.T) {
	e := validPurchaseEvent()
	e.Source = SourceBroker
	_ = e.Prepare()

	if err := e.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for broker source without queue_info")
	}

	e.QueueInfo = &QueueInfo{MessageID: "msg-1", Subject: "events.high"}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil once queue_info is set", err)
	}
}

func TestValidate_IdempotencyKeyFormat(t *testing.T) {
	e := validPurchaseEvent()
	e.IdempotencyKey = "not-hex"
	_ = e.Prepare()

	if err := e.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for malformed idempotency key")
	}

	e.IdempotencyKey = "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for well-formed idempotency key", err)
	}
}

func TestValidate_MetadataPlatformEnum(t *testing.T) {
	e := validPurchaseEvent()
	e.Metadata = &Metadata{Platform: "desktop"}
	_ = e.Prepare()

	if err := e.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for unrecognized platform")
	}

	e.Metadata.Platform = "ios"
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for recognized platform", err)
	}
}

func TestTransition_SetsProcessedAt(t *testing.T) {
	e := validPurchaseEvent()
	_ = e.Prepare()
	e.Transition(StatusProcessing)
	if e.ProcessedAt != nil {
		t.Error("ProcessedAt must stay nil until status=processed")
	}

	e.Transition(StatusProcessed)
	if e.ProcessedAt == nil {
		t.Error("ProcessedAt must be set once status=processed")
	}
}

func TestIncrementRetry_Monotonic(t *testing.T) {
	e := validPurchaseEvent()
	_ = e.Prepare()

	e.IncrementRetry(errors.New("boom"))
	if e.RetryCount != 1 || e.LastError != "boom" {
		t.Errorf("after first retry: RetryCount=%d LastError=%q", e.RetryCount, e.LastError)
	}

	e.IncrementRetry(errors.New("boom again"))
	if e.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", e.RetryCount)
	}
}
