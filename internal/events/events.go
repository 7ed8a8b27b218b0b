package events

import (
	"context"

	"github.com/sablehq/eventq/internal/model"
)

// Topic constants for event-row state transitions. Every durable mutation
// of an event row is published under one of these subjects.
const (
	TopicEmitted   = "eventq.event.emitted"
	TopicClaimed   = "eventq.event.claimed"
	TopicProgress  = "eventq.event.progress"
	TopicCompleted = "eventq.event.completed"
	TopicRetried   = "eventq.event.retried"
	TopicFailed    = "eventq.event.failed"
	TopicRequeued  = "eventq.event.requeued"
)

// Notification payloads

type Emitted struct {
	Event *model.Event `json:"event"`
}

type Claimed struct {
	Event *model.Event `json:"event"`
}

type Progress struct {
	EventID  string `json:"event_id"`
	Progress int    `json:"progress"`
}

type Completed struct {
	Event *model.Event `json:"event"`
}

type Retried struct {
	Event *model.Event `json:"event"`
	// NextAttempt is retry_count after the requeue, 1-indexed.
	NextAttempt int `json:"next_attempt"`
}

type Failed struct {
	Event *model.Event `json:"event"`
}

type Requeued struct {
	Event *model.Event `json:"event"`
}

// Publisher is the interface for broadcasting event-row changes.
type Publisher interface {
	Publish(ctx context.Context, topic string, notification any) error
	Close() error
}
