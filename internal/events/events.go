package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	// TypeHistoryAppend asks for a failed history append to be retried.
	TypeHistoryAppend = "history_append"
)

// ErrNoHandlers is returned by EmitEvent when nobody is listening.
var ErrNoHandlers = errors.New("no event handlers registered")

// TaskRequestEvent asks for a background task without the emitter knowing
// about the task package.
type TaskRequestEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent serializes payload into a new event of eventType.
func NewTaskRequestEvent(eventType string, payload any) (*TaskRequestEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler processes events. Handlers ignore types they do not own.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(ctx context.Context, event *TaskRequestEvent) error

// EmitEvent calls f.
func (f EmitterFunc) EmitEvent(ctx context.Context, event *TaskRequestEvent) error {
	return f(ctx, event)
}
