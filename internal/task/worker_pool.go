package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// WorkerPool runs tasks from a TaskQueueReader on a fixed number of
// goroutines. Workers exit once the queue is closed and drained.
type WorkerPool struct {
	taskQueue   TaskQueueReader
	workerCount int
	wg          sync.WaitGroup

	// ctx is handed to every Execute call; Stop cancels it when the drain
	// deadline passes.
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger

	// errorHandler is called when a task execution fails. If nil, errors are
	// only logged.
	errorHandler func(task Task, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount defaults to 1 when zero or negative
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{WorkerCount: 2}
}

// NewWorkerPool creates a pool; call Start to launch the workers.
func NewWorkerPool(taskQueue TaskQueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetErrorHandler sets the callback for failed tasks. Call before Start.
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the workers.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", slog.Int("worker_count", p.workerCount))
	for i := range p.workerCount {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop waits for the workers to drain the (already closed) queue. If ctx ends
// first, running and remaining tasks see a cancelled context, which makes them
// fail fast through the error handler, and Stop returns ctx's error once the
// workers have exited.
func (p *WorkerPool) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker pool drain timed out, cancelling remaining tasks")
		p.cancel()
		<-done
		return fmt.Errorf("worker pool drain: %w", ctx.Err())
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	p.logger.Debug("starting worker", slog.Int("worker_id", id))

	for task := range p.taskQueue.GetChannel() {
		p.processTask(task, id)
	}

	p.logger.Debug("task channel closed, stopping worker", slog.Int("worker_id", id))
}

func (p *WorkerPool) processTask(task Task, workerID int) {
	log := p.logger.With(
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()),
		slog.Int("worker_id", workerID),
	)

	err := p.execute(task)
	if err == nil {
		log.Debug("task completed")
		return
	}

	if p.errorHandler != nil {
		p.errorHandler(task, err)
		return
	}
	log.Error("task execution failed",
		slog.String("error", err.Error()),
		slog.String("payload", string(task.Payload())))
}

func (p *WorkerPool) execute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.Execute(p.ctx)
}
