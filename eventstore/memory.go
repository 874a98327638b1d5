package eventstore

import (
	"context"
	"sync"

	"github.com/roomstream/engine/streamtypes"
)

// Memory is a test double for Store: an in-memory map from event_id to
// *streamtypes.Event. It never consults includePrevContent — there is no
// previous content to trim in this engine's scope.
type Memory struct {
	mu     sync.RWMutex
	byID   map[string]*streamtypes.Event
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*streamtypes.Event)}
}

// Put registers an event for later Fetch calls.
func (m *Memory) Put(e *streamtypes.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.byID[e.EventID] = &cp
}

// Fetch implements Store.
func (m *Memory) Fetch(_ context.Context, eventIDs []string, _ bool) ([]*streamtypes.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*streamtypes.Event, 0, len(eventIDs))
	for _, id := range eventIDs {
		if e, ok := m.byID[id]; ok {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}
