package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sablehq/eventq/internal/model"
)

// mockStore is an in-memory store.Store used by the queue tests. It mirrors
// the status preconditions of the real store so transition bugs surface as
// sql.ErrNoRows the way they would against Postgres.
type mockStore struct {
	mu     sync.Mutex
	events map[string]*model.Event
	now    func() time.Time

	claimErr    error
	progressErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		events: make(map[string]*model.Event),
		now:    time.Now,
	}
}

func (m *mockStore) put(e *model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.events[e.ID] = &cp
}

func (m *mockStore) get(id string) *model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.events[id]; ok {
		cp := *e
		return &cp
	}
	return nil
}

// CreateEvent stores the row exactly as given, like the real store's INSERT.
func (m *mockStore) CreateEvent(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.events[event.ID] = &cp
	return nil
}

func (m *mockStore) GetEvent(_ context.Context, id string) (*model.Event, error) {
	e := m.get(id)
	if e == nil {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

func (m *mockStore) ListEvents(_ context.Context, filter model.EventFilter) ([]*model.Event, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Event
	for _, e := range m.events {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (m *mockStore) ClaimDue(_ context.Context, limit int, stuckTimeout time.Duration) ([]*model.Event, error) {
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()

	var due []*model.Event
	for _, e := range m.events {
		switch {
		case e.Status == model.StatusPending && !e.ScheduledAt.After(now):
			due = append(due, e)
		case e.Status == model.StatusProcessing && e.ProcessingStartedAt != nil &&
			e.ProcessingStartedAt.Before(now.Add(-stuckTimeout)):
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority > due[j].Priority
		}
		return due[i].ScheduledAt.Before(due[j].ScheduledAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*model.Event, 0, len(due))
	for _, e := range due {
		started := now
		e.Status = model.StatusProcessing
		e.ProcessingStartedAt = &started
		e.UpdatedAt = now
		cp := *e
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (m *mockStore) MarkCompleted(_ context.Context, id string, result json.RawMessage) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.Status != model.StatusProcessing {
		return nil, sql.ErrNoRows
	}
	now := m.now()
	e.Status = model.StatusCompleted
	e.Progress = 100
	e.Result = result
	e.ErrorMessage = ""
	e.CompletedAt = &now
	e.UpdatedAt = now
	cp := *e
	return &cp, nil
}

func (m *mockStore) MarkRetry(_ context.Context, id string, errMsg string, scheduledAt time.Time) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.Status != model.StatusProcessing || e.RetryCount >= e.MaxRetries {
		return nil, sql.ErrNoRows
	}
	e.Status = model.StatusPending
	e.RetryCount++
	e.ErrorMessage = errMsg
	e.ScheduledAt = scheduledAt
	e.ProcessingStartedAt = nil
	e.UpdatedAt = m.now()
	cp := *e
	return &cp, nil
}

func (m *mockStore) MarkFailed(_ context.Context, id string, errMsg string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.Status != model.StatusProcessing {
		return nil, sql.ErrNoRows
	}
	now := m.now()
	e.Status = model.StatusFailed
	e.ErrorMessage = errMsg
	e.CompletedAt = &now
	e.UpdatedAt = now
	cp := *e
	return &cp, nil
}

func (m *mockStore) UpdateProgress(_ context.Context, id string, progress int) error {
	if m.progressErr != nil {
		return m.progressErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.Status != model.StatusProcessing {
		return sql.ErrNoRows
	}
	if progress > 99 {
		progress = 99
	}
	if progress > e.Progress {
		e.Progress = progress
		e.UpdatedAt = m.now()
	}
	return nil
}

func (m *mockStore) RequeueFailed(_ context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.Status != model.StatusFailed {
		return nil, sql.ErrNoRows
	}
	now := m.now()
	e.Status = model.StatusPending
	e.RetryCount = 0
	e.Progress = 0
	e.ErrorMessage = ""
	e.Result = nil
	e.ScheduledAt = now
	e.ProcessingStartedAt = nil
	e.CompletedAt = nil
	e.UpdatedAt = now
	cp := *e
	return &cp, nil
}

func (m *mockStore) CountByStatus(_ context.Context) (*model.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c model.StatusCounts
	for _, e := range m.events {
		switch e.Status {
		case model.StatusPending:
			c.Pending++
		case model.StatusProcessing:
			c.Processing++
		case model.StatusCompleted:
			c.Completed++
		case model.StatusFailed:
			c.Failed++
		}
	}
	return &c, nil
}

func (m *mockStore) Close() error { return nil }

// capturingPublisher records every notification published during a test.
type capturingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

type publishedMessage struct {
	topic   string
	payload any
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, notification any) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{topic: topic, payload: notification})
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.topic
	}
	return out
}

func (p *capturingPublisher) lastPayload(topic string) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.messages) - 1; i >= 0; i-- {
		if p.messages[i].topic == topic {
			return p.messages[i].payload
		}
	}
	return nil
}

func (p *capturingPublisher) countTopic(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.messages {
		if m.topic == topic {
			n++
		}
	}
	return n
}
