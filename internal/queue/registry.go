package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// HandlerFunc is a type-erased event handler. It receives the raw JSON
// payload and a progress reporter bound to the event being processed, and
// returns a JSON-serializable result or an error. Handlers must tolerate
// re-invocation: delivery is at-least-once and the engine performs no
// deduplication.
type HandlerFunc func(ctx context.Context, payload json.RawMessage, rep *Reporter) (json.RawMessage, error)

// Registry maps event-type patterns to handlers. A pattern is either an
// exact event type ("image.generated") or a namespace prefix ending in '*'
// ("job:*", which matches "job:generate-report"). Registration happens
// once at process start; Lookup is pure and safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]HandlerFunc
	prefixes []prefixHandler // kept sorted longest-prefix-first
}

type prefixHandler struct {
	prefix  string
	handler HandlerFunc
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		exact: make(map[string]HandlerFunc),
	}
}

// Register binds a handler to a pattern. It returns a *PatternError for an
// empty or malformed pattern and an error for duplicate registrations.
func (r *Registry) Register(pattern string, handler HandlerFunc) error {
	if strings.TrimSpace(pattern) == "" {
		return &PatternError{Pattern: pattern, Reason: "must not be empty"}
	}
	if handler == nil {
		return fmt.Errorf("register %q: handler must not be nil", pattern)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		if prefix == "" {
			return &PatternError{Pattern: pattern, Reason: "catch-all is not allowed, use a namespace prefix"}
		}
		if strings.Contains(prefix, "*") {
			return &PatternError{Pattern: pattern, Reason: "'*' is only allowed as a trailing wildcard"}
		}
		for _, p := range r.prefixes {
			if p.prefix == prefix {
				return fmt.Errorf("register %q: pattern already registered", pattern)
			}
		}
		r.prefixes = append(r.prefixes, prefixHandler{prefix: prefix, handler: handler})
		sort.SliceStable(r.prefixes, func(i, j int) bool {
			return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix)
		})
		return nil
	}

	if strings.Contains(pattern, "*") {
		return &PatternError{Pattern: pattern, Reason: "'*' is only allowed as a trailing wildcard"}
	}
	if _, dup := r.exact[pattern]; dup {
		return fmt.Errorf("register %q: pattern already registered", pattern)
	}
	r.exact[pattern] = handler
	return nil
}

// Lookup resolves a handler for the given event type. Exact matches win
// over prefix matches; among prefix matches, the longest prefix wins.
func (r *Registry) Lookup(eventType string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.exact[eventType]; ok {
		return h, true
	}
	for _, p := range r.prefixes {
		if strings.HasPrefix(eventType, p.prefix) {
			return p.handler, true
		}
	}
	return nil, false
}

// Patterns returns all registered patterns, exact first.
func (r *Registry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patterns := make([]string, 0, len(r.exact)+len(r.prefixes))
	for p := range r.exact {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	for _, p := range r.prefixes {
		patterns = append(patterns, p.prefix+"*")
	}
	return patterns
}

// Register binds a typed handler to a pattern. The generic handler is
// wrapped in a closure that JSON-unmarshals the payload into T before the
// call and marshals the returned R after it, so handler payload and result
// shapes are statically known.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func Register[T, R any](r *Registry, pattern string, fn func(ctx context.Context, payload T, rep *Reporter) (R, error)) error {
	handler := func(ctx context.Context, payload json.RawMessage, rep *Reporter) (json.RawMessage, error) {
		var t T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &t); err != nil {
				return nil, fmt.Errorf("unmarshal payload for %q: %w", pattern, err)
			}
		}
		result, err := fn(ctx, t, rep)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshal result for %q: %w", pattern, err)
		}
		return data, nil
	}
	return r.Register(pattern, handler)
}
