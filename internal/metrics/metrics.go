// Package metrics defines the Prometheus instrumentation for the queue
// engine. Collectors are registered on the default registry at init time
// and exposed by the server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsEmitted counts durable event rows created, by event type.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventq_events_emitted_total",
		Help: "Number of event rows created.",
	}, []string{"event_type"})

	// EventsClaimed counts rows claimed for processing.
	EventsClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventq_events_claimed_total",
		Help: "Number of event rows claimed by the dispatcher.",
	})

	// EventsCompleted counts successful handler runs, by event type.
	EventsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventq_events_completed_total",
		Help: "Number of events completed successfully.",
	}, []string{"event_type"})

	// EventsRetried counts failed attempts that were requeued.
	EventsRetried = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventq_events_retried_total",
		Help: "Number of failed attempts requeued for retry.",
	}, []string{"event_type"})

	// EventsFailed counts terminal failures, by event type.
	EventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventq_events_failed_total",
		Help: "Number of events that exhausted their retry budget.",
	}, []string{"event_type"})

	// TickDuration observes how long each dispatch tick takes.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eventq_dispatch_tick_duration_seconds",
		Help:    "Duration of dispatch ticks, claim through finalize.",
		Buckets: prometheus.DefBuckets,
	})
)
