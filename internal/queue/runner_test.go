package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/sablehq/eventq/internal/model"
)

func TestRunnerTicksImmediately(t *testing.T) {
	st := newMockStore()
	st.put(pendingEvent("ev-run1", "job:ok"))
	reg := NewRegistry()
	reg.Register("job:ok", func(_ context.Context, _ json.RawMessage, _ *Reporter) (json.RawMessage, error) {
		return nil, nil
	})

	r := NewRunner(newTestDispatcher(st, reg, &capturingPublisher{}), time.Hour, slog.Default())
	r.Start(context.Background())
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st.get("ev-run1").Status == model.StatusCompleted {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("first tick did not run before the interval elapsed")
}

func TestRunnerStopWaitsForLoop(t *testing.T) {
	r := NewRunner(newTestDispatcher(newMockStore(), NewRegistry(), &capturingPublisher{}), 10*time.Millisecond, slog.Default())
	r.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	r.Stop()

	// Stop again is a no-op.
	r.Stop()
}

func TestRunnerStartTwice(t *testing.T) {
	st := newMockStore()
	r := NewRunner(newTestDispatcher(st, NewRegistry(), &capturingPublisher{}), time.Hour, slog.Default())
	r.Start(context.Background())
	r.Start(context.Background())
	r.Stop()
}
