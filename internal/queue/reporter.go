package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sablehq/eventq/internal/events"
	"github.com/sablehq/eventq/internal/store"
)

// Reporter is the progress callback handed to a handler, bound to the
// event row being processed. Reports are monotonic integers in [0,99];
// 100 is reserved for the engine's own finalize step. Updates are written
// to the durable row so subscribers observe them before completion.
type Reporter struct {
	store     store.Store
	publisher events.Publisher
	logger    *slog.Logger
	eventID   string

	mu   sync.Mutex
	last int
}

func newReporter(s store.Store, p events.Publisher, logger *slog.Logger, eventID string, progress int) *Reporter {
	return &Reporter{
		store:     s,
		publisher: p,
		logger:    logger,
		eventID:   eventID,
		last:      progress,
	}
}

// EventID returns the ID of the event this reporter is bound to.
func (r *Reporter) EventID() string {
	return r.eventID
}

// Update records handler progress. Out-of-range values are rejected;
// a value not above the previous report is ignored. The durable write is
// what makes progress visible to subscribers, so a store failure is
// returned to the handler rather than swallowed.
func (r *Reporter) Update(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("progress %d out of range [0,100]", percent)
	}
	// Handlers may report 100 on their last step; the stored value stays
	// at 99 until finalize owns the transition to 100.
	if percent > 99 {
		percent = 99
	}

	r.mu.Lock()
	if percent <= r.last {
		r.mu.Unlock()
		return nil
	}
	r.last = percent
	r.mu.Unlock()

	if err := r.store.UpdateProgress(ctx, r.eventID, percent); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}

	if err := r.publisher.Publish(ctx, events.TopicProgress, events.Progress{
		EventID:  r.eventID,
		Progress: percent,
	}); err != nil {
		r.logger.Warn("failed to publish progress", "event_id", r.eventID, "error", err)
	}
	return nil
}
