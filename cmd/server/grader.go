package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/grading"
	"github.com/phrazzld/recall-api/internal/platform/anthropic"
	"github.com/phrazzld/recall-api/internal/platform/gemini"
	"github.com/phrazzld/recall-api/internal/platform/openai"
)

const maxGraderRetryDelay = 30 * time.Second

// newGrader builds the configured grader wrapped with retries. It returns
// nil for provider "none"; attempts must then carry a score.
func newGrader(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (grading.Grader, error) {
	var (
		g   grading.Grader
		err error
	)
	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderGemini:
		g, err = gemini.NewGeminiGrader(ctx, log, cfg)
	case config.ProviderOpenAI:
		g, err = openai.NewChatGrader(log, cfg)
	case config.ProviderAnthropic:
		g, err = anthropic.NewMessagesGrader(log, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s grader: %w", cfg.Provider, err)
	}

	log.Info("answer grader initialized",
		slog.String("provider", cfg.Provider),
		slog.String("model", cfg.Model),
		slog.Int("max_retries", cfg.MaxRetries))

	return grading.WithRetry(g, grading.RetryConfig{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
		MaxDelay:   maxGraderRetryDelay,
	}, log), nil
}
