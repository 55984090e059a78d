package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRequestEvent(t *testing.T) {
	t.Parallel()

	type payload struct {
		UserID string `json:"user_id"`
		Count  int    `json:"count"`
	}

	event, err := NewTaskRequestEvent(TypeHistoryAppend, payload{UserID: "u1", Count: 2})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeHistoryAppend, event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var got payload
	require.NoError(t, event.UnmarshalPayload(&got))
	assert.Equal(t, payload{UserID: "u1", Count: 2}, got)

	_, err = NewTaskRequestEvent("bad", make(chan int))
	assert.Error(t, err)
}
