package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sablehq/eventq/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into a model.Event.
// The row must contain columns in the order defined by eventColumns.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		payload             []byte
		result              []byte
		errorMessage        sql.NullString
		processingStartedAt sql.NullTime
		completedAt         sql.NullTime
	)

	err := row.Scan(
		&e.ID,
		&e.EventType,
		&payload,
		&e.Status,
		&e.Priority,
		&e.ScheduledAt,
		&e.Progress,
		&result,
		&errorMessage,
		&e.RetryCount,
		&e.MaxRetries,
		&processingStartedAt,
		&completedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.ErrorMessage = errorMessage.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	if len(result) > 0 {
		e.Result = json.RawMessage(result)
	}
	if processingStartedAt.Valid {
		t := processingStartedAt.Time
		e.ProcessingStartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		e.CompletedAt = &t
	}

	return &e, nil
}

// scanEventWithTotal scans a row that has a leading total_count column
// followed by the standard event columns. Used by queryListEvents with
// COUNT(*) OVER().
func scanEventWithTotal(row scannable) (*model.Event, int, error) {
	var total int
	var e model.Event
	var (
		payload             []byte
		result              []byte
		errorMessage        sql.NullString
		processingStartedAt sql.NullTime
		completedAt         sql.NullTime
	)

	err := row.Scan(
		&total,
		&e.ID,
		&e.EventType,
		&payload,
		&e.Status,
		&e.Priority,
		&e.ScheduledAt,
		&e.Progress,
		&result,
		&errorMessage,
		&e.RetryCount,
		&e.MaxRetries,
		&processingStartedAt,
		&completedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, 0, err
	}

	e.ErrorMessage = errorMessage.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	if len(result) > 0 {
		e.Result = json.RawMessage(result)
	}
	if processingStartedAt.Valid {
		t := processingStartedAt.Time
		e.ProcessingStartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		e.CompletedAt = &t
	}

	return &e, total, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
