// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package event

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

// getValidator returns the package-level validator.Validate instance,
// registering the purchase-payload struct-level rule on first use.
func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterStructValidation(purchasePayloadValidation, Event{})
		validatorInst = v
	})
	return validatorInst
}

// purchasePayloadValidation enforces the purchase-specific payload shape:
// a numeric amount greater than zero and a 3-character currency code.
// Registered as a struct-level rule because the constraint spans two
// payload keys and only applies conditionally on EventType.
func purchasePayloadValidation(sl validator.StructLevel) {
	e := sl.Current().Interface().(Event)
	if e.EventType != TypePurchase {
		return
	}

	amount, ok := e.Payload["amount"]
	if !ok {
		sl.ReportError(e.Payload, "Payload", "Payload", "purchase_amount_required", "")
		return
	}
	amountFloat, ok := toFloat64(amount)
	if !ok || amountFloat <= 0 {
		sl.ReportError(e.Payload, "Payload", "Payload", "purchase_amount_positive", "")
	}

	currency, ok := e.Payload["currency"]
	if !ok {
		sl.ReportError(e.Payload, "Payload", "Payload", "purchase_currency_required", "")
		return
	}
	currencyStr, ok := currency.(string)
	if !ok || len(currencyStr) != 3 {
		sl.ReportError(e.Payload, "Payload", "Payload", "purchase_currency_length", "")
	}
}

// toFloat64 normalizes the numeric types goccy/go-json produces when
// decoding an untyped map[string]interface{} payload.
func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// ValidationError reports one or more field-level failures found while
// validating an Event at intake. It wraps PermanentError: invalid events
// are never retried.
type ValidationError struct {
	PermanentError
	Fields []FieldError
}

// FieldError names a single failed field and the rule it violated, used
// both in the 400 response body and in the api_validation_errors_total
// metric's "field" label.
type FieldError struct {
	Field string
	Rule  string
}

// NewValidationError builds a ValidationError from a validator.Validate
// result, translating struct-level and field-level failures into
// FieldErrors.
func NewValidationError(err error) *ValidationError {
	ve := &ValidationError{
		PermanentError: PermanentError{
			Message:  "event failed schema validation",
			Cause:    err,
			Category: ErrorCategoryValidation,
		},
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			ve.Fields = append(ve.Fields, FieldError{
				Field: fe.Field(),
				Rule:  fe.Tag(),
			})
		}
	}
	return ve
}

// Validate checks e against its struct tags and the purchase-payload
// struct-level rule, then applies the cross-field checks that validator
// tags cannot express: timestamp-not-in-future and, when the event
// arrived through the broker or stream adapter, a populated QueueInfo.
func (e *Event) Validate() error {
	if err := getValidator().Struct(e); err != nil {
		return NewValidationError(err)
	}

	if e.Timestamp.After(time.Now().UTC().Add(time.Second)) {
		return NewValidationError(fmt.Errorf("timestamp %s is in the future", e.Timestamp))
	}

	if (e.Source == SourceBroker || e.Source == SourceStream) && e.QueueInfo == nil {
		return NewValidationError(fmt.Errorf("source %q requires queue_info", e.Source))
	}

	if e.Metadata != nil {
		if err := getValidator().Struct(e.Metadata); err != nil {
			return NewValidationError(err)
		}
	}

	return nil
}
