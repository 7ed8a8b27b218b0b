package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sablehq/eventq/internal/events"
	"github.com/sablehq/eventq/internal/model"
)

func TestEmitterEmit(t *testing.T) {
	st := newMockStore()
	pub := &capturingPublisher{}
	em := NewEmitter(st, pub, slog.Default())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	em.now = func() time.Time { return now }

	ev, err := em.Emit(context.Background(), "image.generated", json.RawMessage(`{"url":"x"}`), model.EmitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(ev.ID, "ev-") {
		t.Errorf("ID = %q, want ev- prefix", ev.ID)
	}
	if ev.Status != model.StatusPending {
		t.Errorf("Status = %q, want pending", ev.Status)
	}
	if !ev.ScheduledAt.Equal(now) {
		t.Errorf("ScheduledAt = %v, want %v", ev.ScheduledAt, now)
	}
	if ev.MaxRetries != model.DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", ev.MaxRetries, model.DefaultMaxRetries)
	}
	if !ev.CreatedAt.Equal(now) || !ev.UpdatedAt.Equal(now) {
		t.Errorf("timestamps = (%v, %v), want both %v", ev.CreatedAt, ev.UpdatedAt, now)
	}
	stored := st.get(ev.ID)
	if stored == nil {
		t.Fatal("event row not stored")
	}
	if stored.CreatedAt.IsZero() || stored.UpdatedAt.IsZero() {
		t.Errorf("stored row has zero timestamps: created_at=%v updated_at=%v",
			stored.CreatedAt, stored.UpdatedAt)
	}
	if n := pub.countTopic(events.TopicEmitted); n != 1 {
		t.Errorf("emitted notifications = %d, want 1", n)
	}
}

func TestEmitterEmitWithOptions(t *testing.T) {
	st := newMockStore()
	em := NewEmitter(st, &capturingPublisher{}, slog.Default())
	later := time.Now().Add(time.Hour).Truncate(time.Second)

	five := 5
	ev, err := em.Emit(context.Background(), "job:report", nil, model.EmitOptions{
		Priority:    7,
		ScheduledAt: later,
		MaxRetries:  &five,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Priority != 7 || ev.MaxRetries != 5 || !ev.ScheduledAt.Equal(later) {
		t.Errorf("options not applied: %+v", ev)
	}
}

func TestEmitterEmitZeroRetryBudget(t *testing.T) {
	st := newMockStore()
	em := NewEmitter(st, &capturingPublisher{}, slog.Default())

	zero := 0
	ev, err := em.Emit(context.Background(), "job:once", nil, model.EmitOptions{MaxRetries: &zero})
	if err != nil {
		t.Fatal(err)
	}
	if ev.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", ev.MaxRetries)
	}
	if ev.RetriesRemaining() {
		t.Error("zero-budget event should have no retries remaining")
	}
}

func TestEmitterEmitValidation(t *testing.T) {
	em := NewEmitter(newMockStore(), &capturingPublisher{}, slog.Default())
	ctx := context.Background()

	_, err := em.Emit(ctx, "", nil, model.EmitOptions{})
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}

	if _, err := em.Emit(ctx, "a.b", json.RawMessage(`{broken`), model.EmitOptions{}); err == nil {
		t.Error("expected error for invalid payload JSON")
	}
	neg := -1
	if _, err := em.Emit(ctx, "a.b", nil, model.EmitOptions{MaxRetries: &neg}); err == nil {
		t.Error("expected error for negative retry budget")
	}
}

func TestEmitterEmitPublishFailureIsBestEffort(t *testing.T) {
	st := newMockStore()
	pub := &capturingPublisher{err: errors.New("broker down")}
	em := NewEmitter(st, pub, slog.Default())

	ev, err := em.Emit(context.Background(), "a.b", nil, model.EmitOptions{})
	if err != nil {
		t.Fatalf("emit should survive a publish failure: %v", err)
	}
	if st.get(ev.ID) == nil {
		t.Error("event row not stored")
	}
}
