package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/grading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrader(t *testing.T, handler http.HandlerFunc) *ChatGrader {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewChatGrader(slog.Default(), config.LLMConfig{
		Provider:       config.ProviderOpenAI,
		OpenAIAPIKey:   "test-key",
		Model:          "deepseek-chat",
		BaseURL:        server.URL + "/v1",
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	return g
}

func completion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1767000000,
		"model":   "deepseek-chat",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
	}
}

var request = grading.GradeRequest{Question: "Define osmosis", Answer: "Water moving across a membrane"}

func TestChatGrader_Grade(t *testing.T) {
	var body map[string]any
	g := newTestGrader(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"score": "7/10", "feedback": "Mention concentration gradients."}`, "stop"))
	})

	result, err := g.Grade(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, "7/10", result.RawScore)
	assert.Equal(t, "Mention concentration gradients.", result.Feedback)
	assert.Equal(t, "deepseek-chat", body["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
}

func TestChatGrader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr error
	}{
		{"content filter", http.StatusOK, completion("", "content_filter"), grading.ErrContentBlocked},
		{"no choices", http.StatusOK, map[string]any{"id": "x", "choices": []any{}}, grading.ErrInvalidResponse},
		{"schema mismatch", http.StatusOK, completion(`{"grade": 7}`, "stop"), grading.ErrInvalidResponse},
		{"rate limited", http.StatusTooManyRequests, map[string]any{"error": map[string]any{"message": "slow down", "type": "rate_limit"}}, grading.ErrTransientFailure},
		{"server error", http.StatusBadGateway, map[string]any{"error": map[string]any{"message": "upstream", "type": "server_error"}}, grading.ErrTransientFailure},
		{"unauthorized", http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "bad key", "type": "auth"}}, grading.ErrGradingFailed},
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

func TestNewChatGrader_Config(t *testing.T) {
	_, err := NewChatGrader(slog.Default(), config.LLMConfig{})
	assert.ErrorIs(t, err, grading.ErrInvalidConfig)

	g, err := NewChatGrader(slog.Default(), config.LLMConfig{OpenAIAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.model)
}

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(context.DeadlineExceeded), context.DeadlineExceeded)
	assert.ErrorIs(t, mapError(errors.New("connection refused")), grading.ErrTransientFailure)
}
