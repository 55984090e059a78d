package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
)

// ErrAttemptsExhausted is returned when a task gave up after its last retry.
var ErrAttemptsExhausted = errors.New("task attempts exhausted")

// HistoryAppendPayload is the data carried by a HistoryAppendTask.
type HistoryAppendPayload struct {
	UserID uuid.UUID               `json:"user_id"`
	Entry  *domain.AttemptLogEntry `json:"entry"`
}

// HistoryAppendTask re-appends an attempt-history entry whose first append
// failed. HistoryLog.Append is idempotent on the entry ID, so retrying an
// append that actually landed is harmless.
type HistoryAppendTask struct {
	id          uuid.UUID
	payload     HistoryAppendPayload
	raw         []byte
	history     store.HistoryLog
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

var _ Task = (*HistoryAppendTask)(nil)

// ID implements Task.
func (t *HistoryAppendTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *HistoryAppendTask) Type() string { return TaskTypeHistoryAppend }

// Payload implements Task.
func (t *HistoryAppendTask) Payload() []byte { return t.raw }

// Execute appends the entry, retrying with exponential backoff up to
// maxAttempts times. Validation failures are not retried.
func (t *HistoryAppendTask) Execute(ctx context.Context) error {
	log := t.logger.With(
		slog.String("task_id", t.id.String()),
		slog.String("user_id", t.payload.UserID.String()),
		slog.String("entry_id", t.payload.Entry.ID.String()),
	)

	var lastErr error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		err := t.history.Append(ctx, t.payload.UserID, t.payload.Entry)
		if err == nil {
			log.InfoContext(ctx, "history entry appended on retry", slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if errors.Is(err, domain.ErrValidation) {
			return fmt.Errorf("history entry rejected: %w", err)
		}
		if attempt == t.maxAttempts {
			break
		}

		delay := t.retryDelay << (attempt - 1)
		log.WarnContext(ctx, "history append retry failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", t.maxAttempts),
			slog.Duration("next_delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return fmt.Errorf("history append interrupted after %d attempts: %w (last error: %v)",
				attempt, ctx.Err(), lastErr)
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%w: history append failed %d times: %w", ErrAttemptsExhausted, t.maxAttempts, lastErr)
}

// HistoryAppendTaskFactory builds HistoryAppendTasks with shared settings.
type HistoryAppendTaskFactory struct {
	history     store.HistoryLog
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// NewHistoryAppendTaskFactory creates a factory. maxAttempts below 1 is
// treated as 1.
func NewHistoryAppendTaskFactory(
	history store.HistoryLog,
	maxAttempts int,
	retryDelay time.Duration,
	logger *slog.Logger,
) *HistoryAppendTaskFactory {
	if history == nil {
		panic("history log cannot be nil") // ALLOW-PANIC: constructor invariant
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryAppendTaskFactory{
		history:     history,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger.With(slog.String("component", "history_append_task")),
	}
}

// CreateTask builds a task for payload.
func (f *HistoryAppendTaskFactory) CreateTask(payload HistoryAppendPayload) (*HistoryAppendTask, error) {
	if payload.UserID == uuid.Nil {
		return nil, domain.ErrEmptyUserID
	}
	if payload.Entry == nil {
		return nil, errors.New("history entry cannot be nil")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	return &HistoryAppendTask{
		id:          uuid.New(),
		payload:     payload,
		raw:         raw,
		history:     f.history,
		maxAttempts: f.maxAttempts,
		retryDelay:  f.retryDelay,
		logger:      f.logger,
	}, nil
}
