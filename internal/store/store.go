package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sablehq/eventq/internal/model"
)

// Store defines the persistence interface for the event queue. Every
// lifecycle mutation is a single atomic statement at the store level; the
// claim update in particular is the only cross-process coordination the
// engine relies on.
type Store interface {
	// CreateEvent inserts a new pending event row.
	CreateEvent(ctx context.Context, event *model.Event) error

	// GetEvent returns the event with the given ID, or sql.ErrNoRows.
	GetEvent(ctx context.Context, id string) (*model.Event, error)

	// ListEvents returns events matching the filter plus the total count.
	ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, int, error)

	// ClaimDue atomically transitions up to limit claimable rows to
	// processing and returns them ordered by priority desc, scheduled_at
	// asc. Claimable rows are pending rows whose scheduled_at has passed,
	// plus processing rows stuck longer than stuckTimeout. A row claimed
	// by a concurrent dispatcher is skipped, never returned twice.
	ClaimDue(ctx context.Context, limit int, stuckTimeout time.Duration) ([]*model.Event, error)

	// MarkCompleted finalizes a processing row: status completed,
	// progress 100, result stored, completed_at set. Returns
	// sql.ErrNoRows if the row is not currently processing.
	MarkCompleted(ctx context.Context, id string, result json.RawMessage) (*model.Event, error)

	// MarkRetry requeues a processing row after a failed attempt:
	// status pending, retry_count incremented, error message recorded,
	// scheduled_at pushed to the given time.
	MarkRetry(ctx context.Context, id string, errMsg string, scheduledAt time.Time) (*model.Event, error)

	// MarkFailed terminally fails a processing row whose retry budget is
	// exhausted.
	MarkFailed(ctx context.Context, id string, errMsg string) (*model.Event, error)

	// UpdateProgress raises the progress of a processing row. Values are
	// monotonic: a report lower than the stored progress is a no-op.
	UpdateProgress(ctx context.Context, id string, progress int) error

	// RequeueFailed returns a terminally failed row to the queue with a
	// fresh retry budget. Operator affordance, not an engine transition.
	RequeueFailed(ctx context.Context, id string) (*model.Event, error)

	// CountByStatus returns per-status row counts.
	CountByStatus(ctx context.Context) (*model.StatusCounts, error)

	// Lifecycle
	Close() error
}
