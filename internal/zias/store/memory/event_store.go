package memory

import (
	"context"
	"sync"

	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/types"
)

const defaultListLimit = 100

// EventStore is an in-memory append-only attendance log with the same
// insert-or-ignore semantics as the sqlite sink.
type EventStore struct {
	mu     sync.Mutex
	byID   map[string]struct{}
	events []types.AttendanceEvent
}

func NewEventStore() *EventStore {
	return &EventStore{byID: make(map[string]struct{})}
}

func (s *EventStore) Append(_ context.Context, ev types.AttendanceEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[ev.EventID]; exists {
		return false, nil
	}
	s.byID[ev.EventID] = struct{}{}
	s.events = append(s.events, ev)
	return true, nil
}

func (s *EventStore) List(_ context.Context, q store.EventQuery) ([]types.AttendanceEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var out []types.AttendanceEvent
	// Newest first, like the sqlite implementation.
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		ev := s.events[i]
		if q.IdentityKey != "" && ev.IdentityKey != q.IdentityKey {
			continue
		}
		if q.Room != "" && ev.Room != q.Room {
			continue
		}
		if !q.From.IsZero() && ev.Timestamp.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && ev.Timestamp.After(q.To) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// Events returns a copy of all recorded events in append order.
// Test-only helper.
func (s *EventStore) Events() []types.AttendanceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AttendanceEvent, len(s.events))
	copy(out, s.events)
	return out
}
