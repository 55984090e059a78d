package task

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// funcTask is a Task whose Execute is a function.
type funcTask struct {
	id  uuid.UUID
	run func(ctx context.Context) error
}

func newFuncTask(run func(ctx context.Context) error) *funcTask {
	return &funcTask{id: uuid.New(), run: run}
}

func (t *funcTask) ID() uuid.UUID                     { return t.id }
func (t *funcTask) Type() string                      { return "test" }
func (t *funcTask) Payload() []byte                   { return []byte(`{"test":true}`) }
func (t *funcTask) Execute(ctx context.Context) error { return t.run(ctx) }

func countingTask(n *atomic.Int32) *funcTask {
	return newFuncTask(func(context.Context) error {
		n.Add(1)
		return nil
	})
}
