// Package client provides a transport-agnostic interface for the eventq
// service and an HTTP/JSON implementation that talks to the eventq REST API.
package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sablehq/eventq/internal/model"
)

// QueueClient is the interface that all evq CLI commands use to communicate
// with the eventq server. It is implemented by HTTPClient (default) and can
// be backed by any transport.
type QueueClient interface {
	// Events
	EmitEvent(ctx context.Context, req *EmitEventRequest) (*model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, req *ListEventsRequest) (*ListEventsResponse, error)
	RetryEvent(ctx context.Context, id string) (*model.Event, error)

	// Stats
	Stats(ctx context.Context) (*model.StatusCounts, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// EmitEventRequest holds parameters for emitting an event.
type EmitEventRequest struct {
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Priority    int             `json:"priority,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	// MaxRetries nil means the server default; 0 disables retries.
	MaxRetries *int `json:"max_retries,omitempty"`
}

// ListEventsRequest holds parameters for listing events.
type ListEventsRequest struct {
	Status []string `json:"status,omitempty"`
	Type   []string `json:"type,omitempty"`
	Sort   string   `json:"sort,omitempty"`
	Limit  int      `json:"limit,omitempty"`
	Offset int      `json:"offset,omitempty"`
}

// ListEventsResponse is the response from ListEvents.
type ListEventsResponse struct {
	Events []*model.Event `json:"events"`
	Total  int            `json:"total"`
}
