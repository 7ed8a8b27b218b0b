package model

import "time"

// DefaultMaxRetries is the retry budget applied when EmitOptions leaves
// MaxRetries unset.
const DefaultMaxRetries = 3

// EmitOptions carries the optional knobs accepted by Emit. The zero value
// yields priority 0, a scheduled time of now, and the default retry budget.
type EmitOptions struct {
	// Priority orders claims among otherwise-eligible rows; higher first.
	Priority int `json:"priority,omitempty"`
	// ScheduledAt is the earliest time the event becomes claimable.
	// Zero means immediately.
	ScheduledAt time.Time `json:"scheduled_at,omitempty"`
	// MaxRetries bounds the retry budget. Nil means "use the default";
	// an explicit zero fails the event on its first unsuccessful attempt.
	MaxRetries *int `json:"max_retries,omitempty"`
}

// Normalize fills defaults against the given current time and returns the
// effective options. MaxRetries is non-nil afterward.
func (o EmitOptions) Normalize(now time.Time) EmitOptions {
	if o.ScheduledAt.IsZero() {
		o.ScheduledAt = now
	}
	if o.MaxRetries == nil {
		d := DefaultMaxRetries
		o.MaxRetries = &d
	}
	return o
}
