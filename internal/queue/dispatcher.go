package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sablehq/eventq/internal/events"
	"github.com/sablehq/eventq/internal/metrics"
	"github.com/sablehq/eventq/internal/model"
	"github.com/sablehq/eventq/internal/store"
)

// Dispatcher claims due events and runs their handlers. One Tick is a
// complete claim-execute-finalize cycle; overlapping ticks are safe because
// the claim is atomic at the store, but the Runner never overlaps them.
type Dispatcher struct {
	store     store.Store
	registry  *Registry
	publisher events.Publisher
	retry     RetryScheduler
	logger    *slog.Logger

	batchSize    int
	stuckTimeout time.Duration
	concurrency  int

	now func() time.Time
}

// DispatcherConfig bundles the Dispatcher knobs.
type DispatcherConfig struct {
	BatchSize    int
	StuckTimeout time.Duration
	Concurrency  int
	Retry        RetryScheduler
}

// TickStats summarizes one dispatch cycle.
type TickStats struct {
	Claimed   int
	Completed int
	Retried   int
	Failed    int
}

// NewDispatcher wires a Dispatcher from its collaborators.
func NewDispatcher(st store.Store, reg *Registry, pub events.Publisher, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Dispatcher{
		store:        st,
		registry:     reg,
		publisher:    pub,
		retry:        cfg.Retry,
		logger:       logger,
		batchSize:    cfg.BatchSize,
		stuckTimeout: cfg.StuckTimeout,
		concurrency:  cfg.Concurrency,
		now:          time.Now,
	}
}

// Tick claims one batch of due events and processes them to a terminal or
// requeued state. The claim itself failing aborts the tick; per-event
// failures are absorbed into the retry machinery and the returned stats.
func (d *Dispatcher) Tick(ctx context.Context) (TickStats, error) {
	start := d.now()
	var stats TickStats

	claimed, err := d.store.ClaimDue(ctx, d.batchSize, d.stuckTimeout)
	if err != nil {
		return stats, fmt.Errorf("claiming events: %w", err)
	}
	stats.Claimed = len(claimed)
	metrics.EventsClaimed.Add(float64(len(claimed)))
	if len(claimed) == 0 {
		return stats, nil
	}

	for _, ev := range claimed {
		if err := d.publisher.Publish(ctx, events.TopicClaimed, events.Claimed{Event: ev}); err != nil {
			d.logger.Warn("failed to publish claimed notification", "event_id", ev.ID, "error", err)
		}
	}

	type outcome struct {
		completed bool
		retried   bool
		err       error
	}
	outcomes := make([]outcome, len(claimed))

	sem := make(chan struct{}, d.concurrency)
	var wg sync.WaitGroup
	for i, ev := range claimed {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ev *model.Event) {
			defer wg.Done()
			defer func() { <-sem }()
			completed, retried, err := d.process(ctx, ev)
			outcomes[i] = outcome{completed: completed, retried: retried, err: err}
		}(i, ev)
	}
	wg.Wait()

	var errs []error
	for _, o := range outcomes {
		switch {
		case o.completed:
			stats.Completed++
		case o.retried:
			stats.Retried++
		default:
			stats.Failed++
		}
		if o.err != nil {
			errs = append(errs, o.err)
		}
	}

	metrics.TickDuration.Observe(d.now().Sub(start).Seconds())
	d.logger.Info("dispatch tick",
		"claimed", stats.Claimed,
		"completed", stats.Completed,
		"retried", stats.Retried,
		"failed", stats.Failed,
		"duration", d.now().Sub(start))
	return stats, errors.Join(errs...)
}

// process runs one claimed event through its handler and finalizes the row.
// The returned error covers finalize failures only; handler errors feed the
// retry decision.
func (d *Dispatcher) process(ctx context.Context, ev *model.Event) (completed, retried bool, err error) {
	result, handlerErr := d.invoke(ctx, ev)
	if handlerErr == nil {
		updated, err := d.store.MarkCompleted(ctx, ev.ID, result)
		if err != nil {
			return false, false, fmt.Errorf("completing event %s: %w", ev.ID, err)
		}
		metrics.EventsCompleted.WithLabelValues(ev.EventType).Inc()
		if err := d.publisher.Publish(ctx, events.TopicCompleted, events.Completed{Event: updated}); err != nil {
			d.logger.Warn("failed to publish completed notification", "event_id", ev.ID, "error", err)
		}
		d.logger.Info("event completed", "event_id", ev.ID, "event_type", ev.EventType)
		return true, false, nil
	}

	decision := d.retry.Decide(ev, d.now())
	if decision.Requeue {
		updated, err := d.store.MarkRetry(ctx, ev.ID, handlerErr.Error(), decision.ScheduledAt)
		if err != nil {
			return false, false, fmt.Errorf("requeueing event %s: %w", ev.ID, err)
		}
		metrics.EventsRetried.WithLabelValues(ev.EventType).Inc()
		if err := d.publisher.Publish(ctx, events.TopicRetried, events.Retried{Event: updated, NextAttempt: decision.NextAttempt}); err != nil {
			d.logger.Warn("failed to publish retried notification", "event_id", ev.ID, "error", err)
		}
		d.logger.Warn("event attempt failed, requeued",
			"event_id", ev.ID, "event_type", ev.EventType,
			"attempt", decision.NextAttempt, "max_retries", ev.MaxRetries,
			"next_at", decision.ScheduledAt, "error", handlerErr)
		return false, true, nil
	}

	updated, err := d.store.MarkFailed(ctx, ev.ID, handlerErr.Error())
	if err != nil {
		return false, false, fmt.Errorf("failing event %s: %w", ev.ID, err)
	}
	metrics.EventsFailed.WithLabelValues(ev.EventType).Inc()
	if err := d.publisher.Publish(ctx, events.TopicFailed, events.Failed{Event: updated}); err != nil {
		d.logger.Warn("failed to publish failed notification", "event_id", ev.ID, "error", err)
	}
	d.logger.Error("event failed terminally",
		"event_id", ev.ID, "event_type", ev.EventType,
		"retry_count", ev.RetryCount, "error", handlerErr)
	return false, false, nil
}

// invoke looks up and runs the handler for an event, converting panics and
// missing handlers into ordinary errors.
func (d *Dispatcher) invoke(ctx context.Context, ev *model.Event) (result json.RawMessage, err error) {
	handler, ok := d.registry.Lookup(ev.EventType)
	if !ok {
		return nil, &NoHandlerError{EventType: ev.EventType}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	rep := newReporter(d.store, d.publisher, d.logger, ev.ID, ev.Progress)
	return handler(ctx, ev.Payload, rep)
}
