package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sablehq/eventq/internal/model"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// eventRowColumns is the column list for scanEvent results.
var eventRowColumns = []string{
	"id", "event_type", "payload", "status", "priority", "scheduled_at",
	"progress", "result", "error_message", "retry_count", "max_retries",
	"processing_started_at", "completed_at", "created_at", "updated_at",
}

// eventWithTotalColumns is the column list for queryListEvents results.
var eventWithTotalColumns = append([]string{"total_count"}, eventRowColumns...)

// addEventRow adds a minimal event row to a sqlmock.Rows.
func addEventRow(rows *sqlmock.Rows, id, eventType, status string, priority int, now time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, eventType, nil, status, priority, now,
		0, nil, nil, 0, 3,
		nil, nil, now, now,
	)
}

func TestParseSortClause(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{"", "created_at DESC"},
		{"priority", "priority ASC"},
		{"-priority", "priority DESC"},
		{"evil_column", "created_at DESC"},
		{"-evil_column", "created_at DESC"},
	} {
		if got := parseSortClause(tc.input); got != tc.want {
			t.Errorf("parseSortClause(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
	for _, col := range []string{"priority", "created_at", "updated_at", "scheduled_at", "status", "event_type"} {
		if got := parseSortClause(col); got != col+" ASC" {
			t.Errorf("parseSortClause(%q) = %q, want %q", col, got, col+" ASC")
		}
		if got := parseSortClause("-" + col); got != col+" DESC" {
			t.Errorf("parseSortClause(-%q) = %q, want %q", col, got, col+" DESC")
		}
	}
}

func TestScanHelpers(t *testing.T) {
	// nullTimePtr
	if nullTimePtr(nil).Valid {
		t.Error("nullTimePtr(nil) should be invalid")
	}
	now := time.Now()
	if nt := nullTimePtr(&now); !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("nullTimePtr(now) = %v", nt)
	}

	// nullString
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("timed out"); !ns.Valid || ns.String != "timed out" {
		t.Errorf("nullString(\"timed out\") = %v", ns)
	}

	// jsonbBytes
	if jsonbBytes(nil) != nil {
		t.Error("jsonbBytes(nil) should be nil")
	}
	if jsonbBytes(json.RawMessage{}) != nil {
		t.Error("jsonbBytes({}) should be nil")
	}
	input := json.RawMessage(`{"key":"value"}`)
	if string(jsonbBytes(input)) != `{"key":"value"}` {
		t.Errorf("jsonbBytes = %s", jsonbBytes(input))
	}
}

func TestQueryCreateEvent(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	event := &model.Event{
		ID: "ev-test1", EventType: "test.demo", Payload: json.RawMessage(`{"msg":"hi"}`),
		Status: model.StatusPending, ScheduledAt: now, MaxRetries: 3,
		CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO events").
		WithArgs(
			"ev-test1", "test.demo", []byte(`{"msg":"hi"}`), "pending", 0, now,
			0, sqlmock.AnyArg(), sqlmock.AnyArg(), 0, 3,
			sqlmock.AnyArg(), sqlmock.AnyArg(), now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateEvent(context.Background(), db, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryGetEvent(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := addEventRow(sqlmock.NewRows(eventRowColumns), "ev-test1", "test.demo", "pending", 2, now)
	mock.ExpectQuery("SELECT .+ FROM events WHERE id = \\$1").WithArgs("ev-test1").WillReturnRows(rows)

	event, err := queryGetEvent(context.Background(), db, "ev-test1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != "ev-test1" || event.EventType != "test.demo" {
		t.Fatalf("got id=%q event_type=%q", event.ID, event.EventType)
	}
	if event.Status != model.StatusPending || event.Priority != 2 {
		t.Fatalf("got status=%q priority=%d", event.Status, event.Priority)
	}
}

func TestQueryGetEvent_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM events WHERE id = \\$1").WithArgs("nonexistent").WillReturnError(sql.ErrNoRows)

	_, err := queryGetEvent(context.Background(), db, "nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListEvents(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(eventWithTotalColumns).
		AddRow(2, "ev-a", "job:report", nil, "pending", 5, now, 0, nil, nil, 0, 3, nil, nil, now, now).
		AddRow(2, "ev-b", "job:report", nil, "pending", 0, now, 0, nil, nil, 0, 3, nil, nil, now, now)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ FROM events WHERE status IN \\(\\$1\\)").
		WithArgs("pending", 10).
		WillReturnRows(rows)

	events, total, err := queryListEvents(context.Background(), db, model.EventFilter{
		Status: []model.Status{model.StatusPending},
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(events) != 2 {
		t.Fatalf("got %d events, total %d", len(events), total)
	}
	if events[0].ID != "ev-a" {
		t.Errorf("events[0].ID = %q, want ev-a", events[0].ID)
	}
}

func TestQueryClaimDue(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(eventRowColumns).
		AddRow("ev-hi", "job:x", nil, "processing", 9, now, 0, nil, nil, 0, 3, now, nil, now, now).
		AddRow("ev-lo", "job:y", nil, "processing", 1, now, 0, nil, nil, 0, 3, now, nil, now, now)
	mock.ExpectQuery("WITH claimed AS").
		WithArgs("30m0s", 25).
		WillReturnRows(rows)

	events, err := queryClaimDue(context.Background(), db, 25, 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != "ev-hi" || events[1].ID != "ev-lo" {
		t.Errorf("claim order = [%s %s], want [ev-hi ev-lo]", events[0].ID, events[1].ID)
	}
	for _, e := range events {
		if e.Status != model.StatusProcessing {
			t.Errorf("event %s status = %q, want processing", e.ID, e.Status)
		}
		if e.ProcessingStartedAt == nil {
			t.Errorf("event %s missing processing_started_at", e.ID)
		}
	}
}

func TestQueryClaimDue_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("WITH claimed AS").
		WithArgs("30m0s", 25).
		WillReturnRows(sqlmock.NewRows(eventRowColumns))

	events, err := queryClaimDue(context.Background(), db, 25, 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
}

func TestQueryMarkCompleted(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	result := json.RawMessage(`{"report":"done"}`)

	rows := sqlmock.NewRows(eventRowColumns).
		AddRow("ev-test1", "job:report", nil, "completed", 0, now, 100, []byte(`{"report":"done"}`), nil, 0, 3, now, now, now, now)
	mock.ExpectQuery("UPDATE events").
		WithArgs("ev-test1", []byte(`{"report":"done"}`)).
		WillReturnRows(rows)

	event, err := queryMarkCompleted(context.Background(), db, "ev-test1", result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Status != model.StatusCompleted || event.Progress != 100 {
		t.Errorf("got status=%q progress=%d, want completed/100", event.Status, event.Progress)
	}
	if string(event.Result) != `{"report":"done"}` {
		t.Errorf("result = %s", event.Result)
	}
}

func TestQueryMarkCompleted_NotProcessing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("UPDATE events").
		WithArgs("ev-gone", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := queryMarkCompleted(context.Background(), db, "ev-gone", nil)
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryMarkRetry(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	next := now.Add(5 * time.Minute)

	rows := sqlmock.NewRows(eventRowColumns).
		AddRow("ev-test1", "job:flaky", nil, "pending", 0, next, 0, nil, "handler exploded", 1, 3, nil, nil, now, now)
	mock.ExpectQuery("UPDATE events").
		WithArgs("ev-test1", "handler exploded", next).
		WillReturnRows(rows)

	event, err := queryMarkRetry(context.Background(), db, "ev-test1", "handler exploded", next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Status != model.StatusPending || event.RetryCount != 1 {
		t.Errorf("got status=%q retry_count=%d, want pending/1", event.Status, event.RetryCount)
	}
	if event.ErrorMessage != "handler exploded" {
		t.Errorf("error_message = %q", event.ErrorMessage)
	}
}

func TestQueryMarkFailed(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(eventRowColumns).
		AddRow("ev-test1", "job:flaky", nil, "failed", 0, now, 40, nil, "gave up", 3, 3, now, now, now, now)
	mock.ExpectQuery("UPDATE events").
		WithArgs("ev-test1", "gave up").
		WillReturnRows(rows)

	event, err := queryMarkFailed(context.Background(), db, "ev-test1", "gave up")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Status != model.StatusFailed || event.ErrorMessage != "gave up" {
		t.Errorf("got status=%q error=%q", event.Status, event.ErrorMessage)
	}
	if event.CompletedAt == nil {
		t.Error("failed event should have completed_at set")
	}
}

func TestQueryUpdateProgress(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE events").
		WithArgs("ev-test1", 60).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryUpdateProgress(context.Background(), db, "ev-test1", 60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryUpdateProgress_NotProcessing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE events").
		WithArgs("ev-done", 60).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryUpdateProgress(context.Background(), db, "ev-done", 60); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryRequeueFailed(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := addEventRow(sqlmock.NewRows(eventRowColumns), "ev-test1", "job:flaky", "pending", 0, now)
	mock.ExpectQuery("UPDATE events").
		WithArgs("ev-test1").
		WillReturnRows(rows)

	event, err := queryRequeueFailed(context.Background(), db, "ev-test1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Status != model.StatusPending || event.RetryCount != 0 {
		t.Errorf("got status=%q retry_count=%d, want pending/0", event.Status, event.RetryCount)
	}
}

func TestQueryRequeueFailed_NotFailed(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("UPDATE events").
		WithArgs("ev-pending").
		WillReturnError(sql.ErrNoRows)

	_, err := queryRequeueFailed(context.Background(), db, "ev-pending")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryCountByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"pending", "processing", "completed", "failed"}).
		AddRow(4, 1, 10, 2)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	counts, err := queryCountByStatus(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Pending != 4 || counts.Processing != 1 || counts.Completed != 10 || counts.Failed != 2 {
		t.Errorf("counts = %+v", counts)
	}
}
