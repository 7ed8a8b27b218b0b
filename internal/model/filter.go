package model

// EventFilter describes the query parameters accepted by ListEvents.
type EventFilter struct {
	// Status restricts results to the given statuses (empty = all).
	Status []Status
	// EventType restricts results to the given event types (exact match).
	EventType []string
	// Sort is a column name, optionally prefixed with "-" for descending.
	// Unknown columns fall back to "-created_at".
	Sort string
	// Limit and Offset page through results. Limit <= 0 means no limit.
	Limit  int
	Offset int
}
