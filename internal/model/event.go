package model

import (
	"encoding/json"
	"time"
)

// Status represents the lifecycle state of an event.
type Status string

const (
	// StatusPending means the event is waiting to be claimed by a dispatcher.
	StatusPending Status = "pending"
	// StatusProcessing means a dispatcher has claimed the event and its
	// handler is executing.
	StatusProcessing Status = "processing"
	// StatusCompleted means the handler finished successfully. Terminal.
	StatusCompleted Status = "completed"
	// StatusFailed means the retry budget is exhausted. Terminal.
	StatusFailed Status = "failed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further engine transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Event is the durable record of one unit of deferred work. It is created
// by the emitter in pending state and mutated only by the dispatcher
// (claim, finalize) and, for the progress field, by the executing handler.
type Event struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Status       Status          `json:"status"`
	Priority     int             `json:"priority"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	Progress     int             `json:"progress"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`

	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// RetriesRemaining reports whether the event still has retry budget left.
func (e *Event) RetriesRemaining() bool {
	return e.RetryCount < e.MaxRetries
}

// StatusCounts holds per-status row counts for the stats endpoint.
type StatusCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
