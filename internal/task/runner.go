package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/recall-api/internal/config"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize bounds the in-memory queue
	QueueSize int

	// ShutdownTimeout bounds how long Stop waits for queued tasks
	ShutdownTimeout time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:     2,
		QueueSize:       100,
		ShutdownTimeout: 10 * time.Second,
	}
}

// RunnerConfigFrom converts the task section of the application config.
func RunnerConfigFrom(cfg config.TaskConfig) TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:     cfg.WorkerCount,
		QueueSize:       cfg.QueueSize,
		ShutdownTimeout: time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second,
	}
}

// TaskRunner owns a TaskQueue and the WorkerPool draining it.
type TaskRunner struct {
	queue  *TaskQueue
	pool   *WorkerPool
	config TaskRunnerConfig
	logger *slog.Logger
}

// NewTaskRunner creates a runner. Failed tasks are logged at ERROR with their
// payload unless SetErrorHandler installs something else.
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "task_runner"))

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)
	pool.SetErrorHandler(func(task Task, err error) {
		logger.Error("task failed permanently",
			slog.String("task_id", task.ID().String()),
			slog.String("task_type", task.Type()),
			slog.String("error", err.Error()),
			slog.String("payload", string(task.Payload())))
	})

	return &TaskRunner{
		queue:  queue,
		pool:   pool,
		config: config,
		logger: logger,
	}
}

// SetErrorHandler replaces the failed-task handler. Call before Start.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Submit enqueues task without blocking.
func (r *TaskRunner) Submit(_ context.Context, task Task) error {
	return r.queue.Enqueue(task)
}

// Pending returns the number of tasks waiting for a worker.
func (r *TaskRunner) Pending() int {
	return r.queue.Len()
}

// Start launches the workers.
func (r *TaskRunner) Start() {
	r.pool.Start()
}

// Stop closes the queue and drains it, giving up after the configured
// shutdown timeout or when ctx ends, whichever comes first.
func (r *TaskRunner) Stop(ctx context.Context) error {
	r.queue.Close()

	if r.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.ShutdownTimeout)
		defer cancel()
	}
	return r.pool.Stop(ctx)
}
