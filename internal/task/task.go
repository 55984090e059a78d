package task

import (
	"context"

	"github.com/google/uuid"
)

// Task type constants
const (
	// TaskTypeHistoryAppend retries an attempt-history append.
	TaskTypeHistoryAppend = "history_append"
)

// Task is a unit of background work.
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as JSON. It is what gets logged when the
	// task finally fails.
	Payload() []byte

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// TaskQueueReader gives workers read-only access to queued tasks.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter lets producers enqueue tasks.
type TaskQueueWriter interface {
	// Enqueue adds a task without blocking. Returns ErrQueueFull or
	// ErrQueueClosed when the task cannot be accepted.
	Enqueue(task Task) error

	// Close stops accepting tasks. Already queued tasks remain readable.
	Close()
}
