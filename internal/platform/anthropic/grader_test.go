package anthropic

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/grading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrader(t *testing.T, handler http.HandlerFunc) *MessagesGrader {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewMessagesGrader(slog.Default(), config.LLMConfig{
		Provider:        config.ProviderAnthropic,
		AnthropicAPIKey: "test-key",
		Model:           "haiku",
		BaseURL:         server.URL,
		TimeoutSeconds:  5,
	})
	require.NoError(t, err)
	return g
}

func message(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 40, "output_tokens": 12},
	}
}

var request = grading.GradeRequest{Question: "What does DNA stand for?", Answer: "Deoxyribonucleic acid"}

func TestMessagesGrader_Grade(t *testing.T) {
	var body map[string]any
	g := newTestGrader(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(message("```json\n{\"score\": 10, \"feedback\": \"Exactly right.\"}\n```", "end_turn"))
	})

	result, err := g.Grade(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, json.Number("10"), result.RawScore)
	assert.Equal(t, "Exactly right.", result.Feedback)
	assert.Equal(t, "claude-haiku-4-5", body["model"])
}

func TestMessagesGrader_Errors(t *testing.T) {
	apiError := func(kind string) map[string]any {
		return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": kind}}
	}

	tests := []struct {
		name    string
		status  int
		body    any
		wantErr error
	}{
		{"refusal", http.StatusOK, message("", "refusal"), grading.ErrContentBlocked},
		{"prose instead of json", http.StatusOK, message("I would give this an 8.", "end_turn"), grading.ErrInvalidResponse},
		{"rate limited", http.StatusTooManyRequests, apiError("rate_limit_error"), grading.ErrTransientFailure},
		{"overloaded", http.StatusInternalServerError, apiError("api_error"), grading.ErrTransientFailure},
		{"bad request", http.StatusBadRequest, apiError("invalid_request_error"), grading.ErrGradingFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGrader(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(tc.body)
			})

			_, err := g.Grade(context.Background(), request)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNewMessagesGrader_Config(t *testing.T) {
	_, err := NewMessagesGrader(slog.Default(), config.LLMConfig{})
	assert.ErrorIs(t, err, grading.ErrInvalidConfig)

	g, err := NewMessagesGrader(slog.Default(), config.LLMConfig{AnthropicAPIKey: "k", Model: "claude-opus-4-1"})
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-1", g.model, "unknown names pass through")
}
