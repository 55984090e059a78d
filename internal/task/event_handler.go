package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/recall-api/internal/events"
)

// Submitter accepts tasks for background execution. *TaskRunner satisfies it.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler turns history-append events into tasks and submits
// them.
type TaskFactoryEventHandler struct {
	factory   *HistoryAppendTaskFactory
	submitter Submitter
	logger    *slog.Logger
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// NewTaskFactoryEventHandler wires a factory to a submitter.
func NewTaskFactoryEventHandler(
	factory *HistoryAppendTaskFactory,
	submitter Submitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactoryEventHandler{
		factory:   factory,
		submitter: submitter,
		logger:    logger.With(slog.String("component", "task_factory_event_handler")),
	}
}

// HandleEvent implements events.EventHandler. Events of other types are
// ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if event.Type != events.TypeHistoryAppend {
		h.logger.DebugContext(ctx, "ignoring event with unsupported type",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID.String()))
		return nil
	}

	var payload HistoryAppendPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	task, err := h.factory.CreateTask(payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.submitter.Submit(ctx, task); err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.InfoContext(ctx, "history append queued for retry",
		slog.String("task_id", task.ID().String()),
		slog.String("event_id", event.ID.String()),
		slog.String("user_id", payload.UserID.String()))
	return nil
}
