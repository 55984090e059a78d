package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerConfigFrom(t *testing.T) {
	t.Parallel()
	cfg := RunnerConfigFrom(config.TaskConfig{QueueSize: 7, WorkerCount: 3, ShutdownTimeoutSeconds: 4})
	assert.Equal(t, TaskRunnerConfig{WorkerCount: 3, QueueSize: 7, ShutdownTimeout: 4 * time.Second}, cfg)
}

func TestTaskRunner_SubmitAndStop(t *testing.T) {
	t.Parallel()
	r := NewTaskRunner(DefaultTaskRunnerConfig(), discardLogger())

	var mu sync.Mutex
	var failed []Task
	r.SetErrorHandler(func(task Task, _ error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, task)
	})
	r.Start()

	var n atomic.Int32
	require.NoError(t, r.Submit(context.Background(), countingTask(&n)))
	bad := newFuncTask(func(context.Context) error { return errors.New("nope") })
	require.NoError(t, r.Submit(context.Background(), bad))

	require.NoError(t, r.Stop(context.Background()))
	assert.Equal(t, int32(1), n.Load())
	require.Len(t, failed, 1)
	assert.Equal(t, bad.ID(), failed[0].ID())

	assert.ErrorIs(t, r.Submit(context.Background(), countingTask(&n)), ErrQueueClosed)
}

func TestTaskRunner_FullQueue(t *testing.T) {
	t.Parallel()
	r := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, discardLogger())

	var n atomic.Int32
	require.NoError(t, r.Submit(context.Background(), countingTask(&n)))
	assert.ErrorIs(t, r.Submit(context.Background(), countingTask(&n)), ErrQueueFull)
	assert.Equal(t, 1, r.Pending())

	r.Start()
	require.NoError(t, r.Stop(context.Background()))
	assert.Equal(t, int32(1), n.Load())
}
