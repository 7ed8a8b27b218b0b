package server

import (
	"log/slog"

	"github.com/sablehq/eventq/internal/events"
	"github.com/sablehq/eventq/internal/queue"
	"github.com/sablehq/eventq/internal/store"
)

// Server exposes the queue over HTTP: emit, inspect, retry, stats, and a
// live SSE stream of state transitions. It does not run the dispatcher;
// that is the Runner's job, wired alongside it in the daemon.
type Server struct {
	store     store.Store
	emitter   *queue.Emitter
	publisher events.Publisher
	hub       *Hub
	logger    *slog.Logger
}

// New returns a Server. The publisher is used for server-initiated
// transitions (operator requeues); it should be the same fanout the
// dispatcher publishes through so NATS and the hub stay in step.
func New(st store.Store, emitter *queue.Emitter, publisher events.Publisher, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     st,
		emitter:   emitter,
		publisher: publisher,
		hub:       hub,
		logger:    logger,
	}
}
