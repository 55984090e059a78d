package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/recall-api/internal/events"
)

// MockEventEmitter implements events.EventEmitter and records what it was
// given. Err is returned from every EmitEvent call.
type MockEventEmitter struct {
	Err error

	mu     sync.Mutex
	Events []*events.TaskRequestEvent
}

var _ events.EventEmitter = (*MockEventEmitter)(nil)

// EmitEvent implements events.EventEmitter.
func (m *MockEventEmitter) EmitEvent(_ context.Context, event *events.TaskRequestEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

// Emitted returns a copy of the recorded events.
func (m *MockEventEmitter) Emitted() []*events.TaskRequestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.TaskRequestEvent{}, m.Events...)
}
