package queue

import "fmt"

// NoHandlerError reports that a claimed event had no registered handler.
// It flows through the same retry/failed path as any handler failure.
type NoHandlerError struct {
	EventType string
}

func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("no handler registered for event type %q", e.EventType)
}

// PatternError reports an invalid handler registration pattern.
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid handler pattern %q: %s", e.Pattern, e.Reason)
}
