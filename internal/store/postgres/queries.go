package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sablehq/eventq/internal/model"
)

// eventColumns is the column list used for SELECT and RETURNING clauses on
// the events table.
const eventColumns = `id, event_type, payload, status, priority, scheduled_at,
	progress, result, error_message, retry_count, max_retries,
	processing_started_at, completed_at, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateEvent(ctx context.Context, db executor, e *model.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO events (
			id, event_type, payload, status, priority, scheduled_at,
			progress, result, error_message, retry_count, max_retries,
			processing_started_at, completed_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15
		)`,
		e.ID,
		e.EventType,
		jsonbBytes(e.Payload),
		string(e.Status),
		e.Priority,
		e.ScheduledAt,
		e.Progress,
		jsonbBytes(e.Result),
		nullString(e.ErrorMessage),
		e.RetryCount,
		e.MaxRetries,
		nullTimePtr(e.ProcessingStartedAt),
		nullTimePtr(e.CompletedAt),
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

func queryGetEvent(ctx context.Context, db executor, id string) (*model.Event, error) {
	row := db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func queryListEvents(ctx context.Context, db executor, filter model.EventFilter) ([]*model.Event, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			placeholders[i] = nextArg()
			args = append(args, string(s))
		}
		whereClauses = append(whereClauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.EventType) > 0 {
		placeholders := make([]string, len(filter.EventType))
		for i, t := range filter.EventType {
			placeholders[i] = nextArg()
			args = append(args, t)
		}
		whereClauses = append(whereClauses, "event_type IN ("+strings.Join(placeholders, ", ")+")")
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + eventColumns +
		" FROM events" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	var total int
	for rows.Next() {
		e, t, err := scanEventWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan events: %w", err)
		}
		total = t
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan events: %w", err)
	}

	return events, total, nil
}

// queryClaimDue is the single atomic claim statement. The inner SELECT
// picks due pending rows plus stuck processing rows, locking them with
// SKIP LOCKED so concurrent dispatchers never receive the same row; the
// outer UPDATE flips them to processing in the same statement. The CTE
// re-sorts because UPDATE ... RETURNING does not guarantee row order.
func queryClaimDue(ctx context.Context, db executor, limit int, stuckTimeout time.Duration) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		WITH claimed AS (
			UPDATE events
			SET status = 'processing', processing_started_at = NOW(), updated_at = NOW()
			WHERE id IN (
				SELECT id FROM events
				WHERE (status = 'pending' AND scheduled_at <= NOW())
				   OR (status = 'processing' AND processing_started_at < NOW() - $1::interval)
				ORDER BY priority DESC, scheduled_at ASC
				FOR UPDATE SKIP LOCKED
				LIMIT $2
			)
			RETURNING `+eventColumns+`
		)
		SELECT * FROM claimed ORDER BY priority DESC, scheduled_at ASC`,
		stuckTimeout.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func queryMarkCompleted(ctx context.Context, db executor, id string, result json.RawMessage) (*model.Event, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE events
		SET status = 'completed', progress = 100, result = $2,
			completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
		RETURNING `+eventColumns,
		id, jsonbBytes(result),
	)
	return scanEvent(row)
}

func queryMarkRetry(ctx context.Context, db executor, id string, errMsg string, scheduledAt time.Time) (*model.Event, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE events
		SET status = 'pending', retry_count = retry_count + 1,
			error_message = $2, scheduled_at = $3,
			processing_started_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'processing' AND retry_count < max_retries
		RETURNING `+eventColumns,
		id, errMsg, scheduledAt,
	)
	return scanEvent(row)
}

func queryMarkFailed(ctx context.Context, db executor, id string, errMsg string) (*model.Event, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE events
		SET status = 'failed', error_message = $2,
			completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
		RETURNING `+eventColumns,
		id, errMsg,
	)
	return scanEvent(row)
}

// queryUpdateProgress only ever raises progress (GREATEST) and caps handler
// reports at 99; progress 100 is written exclusively by queryMarkCompleted.
func queryUpdateProgress(ctx context.Context, db executor, id string, progress int) error {
	res, err := db.ExecContext(ctx, `
		UPDATE events
		SET progress = GREATEST(progress, LEAST($2, 99)), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`,
		id, progress,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryRequeueFailed(ctx context.Context, db executor, id string) (*model.Event, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE events
		SET status = 'pending', retry_count = 0, progress = 0,
			error_message = NULL, result = NULL, scheduled_at = NOW(),
			processing_started_at = NULL, completed_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'failed'
		RETURNING `+eventColumns,
		id,
	)
	return scanEvent(row)
}

func queryCountByStatus(ctx context.Context, db executor) (*model.StatusCounts, error) {
	counts := &model.StatusCounts{}
	err := db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM events`).Scan(
		&counts.Pending,
		&counts.Processing,
		&counts.Completed,
		&counts.Failed,
	)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	return counts, nil
}

func parseSortClause(sort string) string {
	if sort == "" {
		return "created_at DESC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"priority": true, "created_at": true, "updated_at": true,
		"scheduled_at": true, "status": true, "event_type": true,
	}
	if !allowed[col] {
		return "created_at DESC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
