package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// maxEventTypeLen bounds the event_type column.
const maxEventTypeLen = 200

// ValidateEmit checks the arguments of an Emit call before a row is created.
// It returns a *ValidationError if any rules fail, or nil if the input is valid.
func ValidateEmit(eventType string, payload json.RawMessage, opts EmitOptions) error {
	var ve ValidationError

	// Event type: required, bounded, no whitespace.
	et := strings.TrimSpace(eventType)
	if et == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "event_type", Message: "is required"})
	} else {
		if et != eventType || strings.ContainsAny(eventType, " \t\n") {
			ve.Errors = append(ve.Errors, FieldError{Field: "event_type", Message: "must not contain whitespace"})
		}
		if len(eventType) > maxEventTypeLen {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   "event_type",
				Message: fmt.Sprintf("must be %d characters or fewer", maxEventTypeLen),
			})
		}
	}

	// Payload: when present, must be a single valid JSON value.
	if len(payload) > 0 && !json.Valid(payload) {
		ve.Errors = append(ve.Errors, FieldError{Field: "payload", Message: "must be valid JSON"})
	}

	// Retry budget: negative values are nonsensical.
	if opts.MaxRetries != nil && *opts.MaxRetries < 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "max_retries",
			Message: fmt.Sprintf("must not be negative, got %d", *opts.MaxRetries),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateEvent checks a fully-populated Event for constraint violations.
// Used by the store boundary as a last line of defense before writes.
func ValidateEvent(e *Event) error {
	var ve ValidationError

	if strings.TrimSpace(e.ID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "id", Message: "is required"})
	}
	if strings.TrimSpace(e.EventType) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "event_type", Message: "is required"})
	}
	if !e.Status.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "status",
			Message: fmt.Sprintf("invalid value %q", e.Status),
		})
	}
	if e.Progress < 0 || e.Progress > 100 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "progress",
			Message: fmt.Sprintf("must be between 0 and 100, got %d", e.Progress),
		})
	}
	if e.Status == StatusCompleted && e.Progress != 100 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "progress",
			Message: "must be 100 for a completed event",
		})
	}
	if e.RetryCount > e.MaxRetries {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "retry_count",
			Message: fmt.Sprintf("exceeds max_retries (%d > %d)", e.RetryCount, e.MaxRetries),
		})
	}
	if e.ScheduledAt.Equal(time.Time{}) {
		ve.Errors = append(ve.Errors, FieldError{Field: "scheduled_at", Message: "is required"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
