package grading

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		text         string
		wantScore    any
		wantFeedback string
		wantErr      error
	}{
		{
			name:         "numeric score",
			text:         `{"score": 8.5, "feedback": "Nearly complete."}`,
			wantScore:    json.Number("8.5"),
			wantFeedback: "Nearly complete.",
		},
		{
			name:         "string score",
			text:         `{"score": "7", "feedback": "ok"}`,
			wantScore:    "7",
			wantFeedback: "ok",
		},
		{
			name:         "fenced json",
			text:         "```json\n{\"score\": 10, \"feedback\": \"Correct.\"}\n```",
			wantScore:    json.Number("10"),
			wantFeedback: "Correct.",
		},
		{
			name:    "missing feedback",
			text:    `{"score": 3}`,
			wantErr: ErrInvalidResponse,
		},
		{
			name:    "wrong score type",
			text:    `{"score": true, "feedback": "x"}`,
			wantErr: ErrInvalidResponse,
		},
		{
			name:    "extra field",
			text:    `{"score": 1, "feedback": "x", "confidence": 0.2}`,
			wantErr: ErrInvalidResponse,
		},
		{
			name:    "not json",
			text:    "The answer deserves a 7.",
			wantErr: ErrInvalidResponse,
		},
		{
			name:    "empty",
			text:    "   ",
			wantErr: ErrInvalidResponse,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result, err := ParseResponse(tc.text)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantScore, result.RawScore)
			assert.Equal(t, tc.wantFeedback, result.Feedback)
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
	assert.Equal(t, "", stripCodeFence("```"))
}
