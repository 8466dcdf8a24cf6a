// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package event

// ErrorCategory categorizes a pipeline error for metrics and for deciding
// which dead-letter cascade queue an unrecoverable failure lands in.
type ErrorCategory int

const (
	ErrorCategoryUnknown ErrorCategory = iota
	ErrorCategoryConnection
	ErrorCategoryTimeout
	ErrorCategoryValidation
	ErrorCategoryDecode
	ErrorCategoryHandler
	ErrorCategoryCapacity
)

// String returns the label used in log fields and metric values.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConnection:
		return "connection"
	case ErrorCategoryTimeout:
		return "timeout"
	case ErrorCategoryValidation:
		return "validation"
	case ErrorCategoryDecode:
		return "decode"
	case ErrorCategoryHandler:
		return "handler"
	case ErrorCategoryCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// RetryableError marks a failure as transient: the backend or consumer
// that raised it should retry up to the configured budget before handing
// the event to the dead-letter manager.
type RetryableError struct {
	Message  string
	Cause    error
	Category ErrorCategory
}

func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RetryableError) Unwrap() error { return e.Cause }

// PermanentError marks a failure as unrecoverable: no amount of retrying
// will succeed, so the caller should skip the retry budget entirely.
type PermanentError struct {
	Message  string
	Cause    error
	Category ErrorCategory
}

func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *PermanentError) Unwrap() error { return e.Cause }

// DuplicateEventError is raised when an idempotency_key collides with an
// already-persisted event. Treated as success by the caller: the cached
// result for the original event is returned rather than propagating an
// error to the client.
type DuplicateEventError struct {
	PermanentError
	ExistingID string
}

// NewDuplicateEventError reports that idempotencyKey already maps to
// existingID.
func NewDuplicateEventError(idempotencyKey, existingID string) *DuplicateEventError {
	return &DuplicateEventError{
		PermanentError: PermanentError{
			Message:  "idempotency key already claimed by event " + existingID,
			Category: ErrorCategoryValidation,
		},
		ExistingID: existingID,
	}
}

// BrokerUnavailableError wraps a broker publish or consume failure. The
// caller's breaker records the failure and, at intake, the router fails
// over to the stream adapter.
type BrokerUnavailableError struct {
	RetryableError
}

// NewBrokerUnavailableError wraps cause as a BrokerUnavailableError.
func NewBrokerUnavailableError(cause error) *BrokerUnavailableError {
	return &BrokerUnavailableError{
		RetryableError{Message: "broker unavailable", Cause: cause, Category: ErrorCategoryConnection},
	}
}

// StreamUnavailableError wraps a stream publish, consume, or claim
// failure. When both the broker and the stream fail, the caller falls
// back to the emergency path (direct store write with status=failed).
type StreamUnavailableError struct {
	RetryableError
}

// NewStreamUnavailableError wraps cause as a StreamUnavailableError.
func NewStreamUnavailableError(cause error) *StreamUnavailableError {
	return &StreamUnavailableError{
		RetryableError{Message: "stream unavailable", Cause: cause, Category: ErrorCategoryConnection},
	}
}

// MessageDecodeError is raised by a consumer that cannot deserialize a
// delivered message. Routed straight to the dead-letter queue; retrying a
// malformed payload will never succeed.
type MessageDecodeError struct {
	PermanentError
}

// NewMessageDecodeError wraps cause as a MessageDecodeError.
func NewMessageDecodeError(cause error) *MessageDecodeError {
	return &MessageDecodeError{
		PermanentError{Message: "failed to decode message", Cause: cause, Category: ErrorCategoryDecode},
	}
}

// HandlerError records a single handler's failure during event dispatch.
// Logged per handler; the event is still marked processed since the
// other handlers in the fan-out may have succeeded.
type HandlerError struct {
	RetryableError
	Handler string
}

// NewHandlerError wraps cause as a HandlerError raised by handler.
func NewHandlerError(handler string, cause error) *HandlerError {
	return &HandlerError{
		RetryableError: RetryableError{Message: "handler " + handler + " failed", Cause: cause, Category: ErrorCategoryHandler},
		Handler:        handler,
	}
}

// TransientHandlerError marks a handler failure that should surface to
// the consumer so the delivery is retried rather than acked. Reserved for
// handlers that opt into at-least-once semantics; the default handler
// contract is HandlerError.
type TransientHandlerError struct {
	RetryableError
	Handler string
}

// NewTransientHandlerError wraps cause as a TransientHandlerError raised
// by handler.
func NewTransientHandlerError(handler string, cause error) *TransientHandlerError {
	return &TransientHandlerError{
		RetryableError: RetryableError{Message: "handler " + handler + " requested retry", Cause: cause, Category: ErrorCategoryHandler},
		Handler:        handler,
	}
}

// BackendPermanentError is raised by a consumer when a backend failure
// persists past the retry budget. The caller hands the event to the
// dead-letter manager.
type BackendPermanentError struct {
	PermanentError
}

// NewBackendPermanentError wraps cause as a BackendPermanentError.
func NewBackendPermanentError(cause error) *BackendPermanentError {
	return &BackendPermanentError{
		PermanentError{Message: "backend retries exhausted", Cause: cause, Category: ErrorCategoryConnection},
	}
}

// DLQPublishError is raised when the dead-letter manager cannot place an
// event on the next cascade queue. The manager falls through to the next
// tier (KV backup, then file log) rather than propagating this error.
type DLQPublishError struct {
	RetryableError
	Tier string
}

// NewDLQPublishError wraps cause as a DLQPublishError raised while
// publishing to tier.
func NewDLQPublishError(tier string, cause error) *DLQPublishError {
	return &DLQPublishError{
		RetryableError: RetryableError{Message: "dead-letter publish to " + tier + " failed", Cause: cause, Category: ErrorCategoryConnection},
		Tier:           tier,
	}
}
