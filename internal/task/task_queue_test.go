package task

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue(t *testing.T) {
	t.Parallel()
	var n atomic.Int32
	q := NewTaskQueue(2, discardLogger())

	require.NoError(t, q.Enqueue(countingTask(&n)))
	require.NoError(t, q.Enqueue(countingTask(&n)))
	assert.ErrorIs(t, q.Enqueue(countingTask(&n)), ErrQueueFull)
	assert.Equal(t, 2, q.Len())

	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Enqueue(countingTask(&n)), ErrQueueClosed)

	drained := 0
	for range q.GetChannel() {
		drained++
	}
	assert.Equal(t, 2, drained, "queued tasks survive Close")
}

func TestNewTaskQueue_MinimumSize(t *testing.T) {
	t.Parallel()
	q := NewTaskQueue(0, nil)
	var n atomic.Int32
	assert.NoError(t, q.Enqueue(countingTask(&n)))
}
