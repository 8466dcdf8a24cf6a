// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package event

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an Event row in the store.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// Source identifies which ingest path delivered an Event.
type Source string

const (
	SourceAPI    Source = "api"
	SourceBroker Source = "broker"
	SourceStream Source = "stream"
)

// Type is the closed set of event types accepted by the pipeline.
type Type string

const (
	TypeClick        Type = "click"
	TypeView         Type = "view"
	TypePurchase     Type = "purchase"
	TypeLogin        Type = "login"
	TypeLogout       Type = "logout"
	TypeSignup       Type = "signup"
	TypeSubscription Type = "subscription"
	TypePayment      Type = "payment"
	TypeCustom       Type = "custom"
)

// highPriorityTypes and mediumPriorityTypes are the event types
// DerivePriority maps to PriorityHigh and PriorityMedium respectively.
var highPriorityTypes = map[Type]bool{
	TypePurchase:     true,
	TypeSubscription: true,
	TypePayment:      true,
}

var mediumPriorityTypes = map[Type]bool{
	TypeLogin:  true,
	TypeLogout: true,
	TypeSignup: true,
}

// PriorityHigh is the derived priority for purchase/subscription/payment
// events. PriorityHigh and above must never traverse the normal-priority
// path (I5).
const PriorityHigh = 9

// PriorityMedium is the derived priority for login/logout/signup events.
const PriorityMedium = 5

// PriorityLow is the derived priority for every other event type.
const PriorityLow = 1

// HighPriorityThreshold is the inclusive floor above which an event must be
// routed to the broker's high-priority queue or the stream's high-priority
// stream, never the normal path (I5).
const HighPriorityThreshold = 8

// QueueInfo records the provenance of an Event that arrived via the broker
// or stream adapters: the back-end message identifier that must be ACKed or
// retried against.
type QueueInfo struct {
	MessageID string `json:"message_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
}

// Metadata is the optional free-form envelope attached to an Event. Only
// Platform is schema-checked; AppVersion and any additional keys pass
// through unvalidated.
type Metadata struct {
	AppVersion string                 `json:"app_version,omitempty" validate:"omitempty,max=32"`
	Platform   string                 `json:"platform,omitempty" validate:"omitempty,oneof=ios android web"`
	Extra      map[string]interface{} `json:"-"`
}

// Event is the unit of work that flows through every stage of the
// ingestion pipeline.
type Event struct {
	ID             string                 `json:"id" validate:"omitempty,uuid"`
	UserID         string                 `json:"user_id" validate:"required,uuid"`
	EventType      Type                   `json:"event_type" validate:"required,oneof=click view purchase login logout signup subscription payment custom"`
	Timestamp      time.Time              `json:"timestamp" validate:"required"`
	Payload        map[string]interface{} `json:"payload"`
	Metadata       *Metadata              `json:"metadata,omitempty"`
	Priority       int                    `json:"priority" validate:"min=0,max=10"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty" validate:"omitempty,len=64,lowercase,hexadecimal"`
	Source         Source                 `json:"source" validate:"required,oneof=api broker stream"`
	QueueInfo      *QueueInfo             `json:"queue_info,omitempty"`

	Status      Status     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	// priorityExplicit records whether Priority arrived on the wire, so
	// Prepare only derives a value when the caller omitted one.
	priorityExplicit bool
}

// SetPriority marks Priority as explicitly set by the caller, preventing
// Prepare from overwriting it with a derived value.
func (e *Event) SetPriority(p int) {
	e.Priority = p
	e.priorityExplicit = true
}

// DerivePriority returns the priority implied by t when the caller omitted
// one: purchase/subscription/payment events are high priority, the
// identity-lifecycle events are medium, everything else is low.
func DerivePriority(t Type) int {
	switch {
	case highPriorityTypes[t]:
		return PriorityHigh
	case mediumPriorityTypes[t]:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// IsHighPriority reports whether p must be routed to a high-priority queue
// or stream rather than the normal path (I5).
func IsHighPriority(p int) bool {
	return p >= HighPriorityThreshold
}

// Prepare assigns a UUIDv7 ID if one was not supplied, derives Priority
// from EventType when the caller never set one explicitly, and defaults
// Status to pending. Called once at intake, before Validate.
func (e *Event) Prepare() error {
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		e.ID = id.String()
	}
	if !e.priorityExplicit && e.Priority == 0 {
		e.Priority = DerivePriority(e.EventType)
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	return nil
}

// Transition moves the event to a new status and stamps ProcessedAt when
// that status is processed. It does not check I3's lifecycle order: any
// status may follow any other, including one after processed.
func (e *Event) Transition(to Status) {
	e.Status = to
	if to == StatusProcessed {
		now := time.Now().UTC()
		e.ProcessedAt = &now
	}
}

// IncrementRetry bumps RetryCount and records the failure that triggered
// the retry, preserving I4's monotonicity invariant.
func (e *Event) IncrementRetry(err error) {
	e.RetryCount++
	if err != nil {
		e.LastError = err.Error()
	}
}
