package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sablehq/eventq/internal/events"
	"github.com/sablehq/eventq/internal/idgen"
	"github.com/sablehq/eventq/internal/metrics"
	"github.com/sablehq/eventq/internal/model"
	"github.com/sablehq/eventq/internal/store"
)

// Emitter creates durable event rows. The row write is the source of truth;
// the broadcast is best effort and never fails an emit.
type Emitter struct {
	store     store.Store
	publisher events.Publisher
	logger    *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewEmitter returns an Emitter backed by the given store and publisher.
func NewEmitter(st store.Store, pub events.Publisher, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		store:     st,
		publisher: pub,
		logger:    logger,
		now:       time.Now,
	}
}

// Emit validates the input, persists a new pending event row, and broadcasts
// an emitted notification. The returned event reflects the stored row.
func (e *Emitter) Emit(ctx context.Context, eventType string, payload json.RawMessage, opts model.EmitOptions) (*model.Event, error) {
	if err := model.ValidateEmit(eventType, payload, opts); err != nil {
		return nil, err
	}
	now := e.now()
	opts = opts.Normalize(now)

	id, err := idgen.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating event id: %w", err)
	}

	event := &model.Event{
		ID:          id,
		EventType:   eventType,
		Payload:     payload,
		Status:      model.StatusPending,
		Priority:    opts.Priority,
		ScheduledAt: opts.ScheduledAt,
		MaxRetries:  *opts.MaxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	metrics.EventsEmitted.WithLabelValues(event.EventType).Inc()

	if err := e.publisher.Publish(ctx, events.TopicEmitted, events.Emitted{Event: event}); err != nil {
		e.logger.Warn("failed to publish emitted notification",
			"event_id", event.ID, "event_type", event.EventType, "error", err)
	}
	return event, nil
}
