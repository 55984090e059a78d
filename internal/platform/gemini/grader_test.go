package gemini

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

func newTestGrader(t *testing.T, handler http.HandlerFunc) *GeminiGrader {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewGeminiGrader(context.Background(), slog.Default(), config.LLMConfig{
		Provider:       config.ProviderGemini,
		GeminiAPIKey:   "test-key",
		Model:          "gemini-flash",
		BaseURL:        server.URL,
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	return g
}

func candidateResponse(text, finish string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": text}},
			},
			"finishReason": finish,
		}},
	}
}

var request = grading.GradeRequest{Context: "Cell biology", Question: "What is ATP?", Answer: "The energy currency of the cell"}

func TestGeminiGrader_Grade(t *testing.T) {
	var gotPath string
	g := newTestGrader(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(candidateResponse(`{"score": 9, "feedback": "Correct."}`, "STOP"))
	})

	result, err := g.Grade(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, json.Number("9"), result.RawScore)
	assert.Equal(t, "Correct.", result.Feedback)
	assert.Contains(t, gotPath, "gemini-2.0-flash", "alias resolves to the model ID")
}

func TestGeminiGrader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr error
	}{
		{
			name:    "safety block",
			status:  http.StatusOK,
			body:    candidateResponse("", "SAFETY"),
			wantErr: grading.ErrContentBlocked,
		},
		{
			name:    "malformed output",
			status:  http.StatusOK,
			body:    candidateResponse("nine out of ten", "STOP"),
			wantErr: grading.ErrInvalidResponse,
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    map[string]any{"error": map[string]any{"code": 429, "message": "quota", "status": "RESOURCE_EXHAUSTED"}},
			wantErr: grading.ErrTransientFailure,
		},
		{
			name:    "server error",
			status:  http.StatusServiceUnavailable,
			body:    map[string]any{"error": map[string]any{"code": 503, "message": "down", "status": "UNAVAILABLE"}},
			wantErr: grading.ErrTransientFailure,
		},
		{
			name:    "bad request",
			status:  http.StatusBadRequest,
			body:    map[string]any{"error": map[string]any{"code": 400, "message": "bad", "status": "INVALID_ARGUMENT"}},
			wantErr: grading.ErrGradingFailed,
		},
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

func TestGeminiGrader_RejectsEmptyAnswer(t *testing.T) {
	called := false
	g := newTestGrader(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := g.Grade(context.Background(), grading.GradeRequest{Question: "q"})
	assert.ErrorIs(t, err, grading.ErrEmptyAnswer)
	assert.False(t, called)
}

func TestNewGeminiGrader_Config(t *testing.T) {
	_, err := NewGeminiGrader(context.Background(), slog.Default(), config.LLMConfig{})
	assert.ErrorIs(t, err, grading.ErrInvalidConfig)

	_, err = NewGeminiGrader(context.Background(), nil, config.LLMConfig{GeminiAPIKey: "k"})
	assert.Error(t, err)

	_, err = NewGeminiGrader(context.Background(), slog.Default(), config.LLMConfig{
		GeminiAPIKey: "k", PromptTemplatePath: "/nonexistent/prompt.tmpl",
	})
	assert.ErrorIs(t, err, grading.ErrInvalidConfig)
}

func TestMapError_PassesContextErrors(t *testing.T) {
	assert.ErrorIs(t, mapError(context.Canceled), context.Canceled)
	assert.ErrorIs(t, mapError(errors.New("dial tcp: refused")), grading.ErrTransientFailure)
}
