package queue

import (
	"time"

	"github.com/sablehq/eventq/internal/model"
)

// RetryScheduler decides what happens to an event after a failed attempt.
// It is a pure value type; Decide has no side effects.
type RetryScheduler struct {
	// BaseDelay is the unit of the linear backoff: attempt n is delayed
	// by BaseDelay * n.
	BaseDelay time.Duration
	// MaxDelay caps the computed delay. Zero means uncapped.
	MaxDelay time.Duration
}

// Decision is the outcome of RetryScheduler.Decide.
type Decision struct {
	// Requeue is true when the event returns to pending for another
	// attempt; false means the event fails terminally.
	Requeue bool
	// NextAttempt is the retry_count after the requeue (1-indexed).
	// Zero when Requeue is false.
	NextAttempt int
	// ScheduledAt is when the requeued event becomes claimable again.
	// Zero when Requeue is false.
	ScheduledAt time.Time
}

// Decide applies the retry budget and linear backoff to a failed event.
func (s RetryScheduler) Decide(e *model.Event, now time.Time) Decision {
	if !e.RetriesRemaining() {
		return Decision{}
	}
	attempt := e.RetryCount + 1
	return Decision{
		Requeue:     true,
		NextAttempt: attempt,
		ScheduledAt: now.Add(s.Backoff(attempt)),
	}
}

// Backoff returns the delay before retry attempt n (1-indexed):
// BaseDelay * n, capped at MaxDelay when a cap is configured.
func (s RetryScheduler) Backoff(attempt int) time.Duration {
	d := s.BaseDelay * time.Duration(attempt)
	if s.MaxDelay > 0 && d > s.MaxDelay {
		return s.MaxDelay
	}
	return d
}
