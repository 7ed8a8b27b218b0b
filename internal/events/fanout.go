package events

import (
	"context"
	"errors"
)

// Fanout is a Publisher that forwards every notification to each of its
// members. Used to pair the NATS broadcast with the in-process SSE hub so
// both see the same stream.
type Fanout struct {
	members []Publisher
}

// NewFanout returns a Publisher that publishes to every member in order.
func NewFanout(members ...Publisher) *Fanout {
	return &Fanout{members: members}
}

// Publish forwards to every member. All members are attempted; errors are
// joined.
func (f *Fanout) Publish(ctx context.Context, topic string, notification any) error {
	var errs []error
	for _, m := range f.members {
		if err := m.Publish(ctx, topic, notification); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every member.
func (f *Fanout) Close() error {
	var errs []error
	for _, m := range f.members {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
