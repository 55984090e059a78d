package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/grading"
	"github.com/phrazzld/recall-api/internal/platform/logger"
)

// DefaultModel is used when no model is configured.
const DefaultModel = goopenai.GPT4oMini

const maxCompletionTokens = 512

// ChatGrader implements grading.Grader with chat completions.
type ChatGrader struct {
	logger  *slog.Logger
	client  *goopenai.Client
	prompt  *grading.Prompt
	model   string
	timeout time.Duration
}

var _ grading.Grader = (*ChatGrader)(nil)

// NewChatGrader creates a grader from the LLM configuration.
func NewChatGrader(log *slog.Logger, cfg config.LLMConfig) (*ChatGrader, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", grading.ErrInvalidConfig)
	}

	prompt, err := grading.LoadPrompt(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	clientConfig := goopenai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &ChatGrader{
		logger:  log.With(slog.String("component", "openai_grader")),
		client:  goopenai.NewClientWithConfig(clientConfig),
		prompt:  prompt,
		model:   model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// Grade sends one grading request. JSON mode is requested rather than a
// strict schema since most compatible providers only implement json_object;
// the reply is validated locally.
func (g *ChatGrader) Grade(ctx context.Context, req grading.GradeRequest) (*grading.GradeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, g.logger)

	text, err := g.prompt.Render(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", grading.ErrGradingFailed, err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: grading.SystemInstruction},
			{Role: goopenai.ChatMessageRoleUser, Content: text},
		},
		MaxCompletionTokens: maxCompletionTokens,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		log.ErrorContext(ctx, "chat completion failed",
			slog.String("model", g.model),
			slog.String("error", err.Error()))
		return nil, mapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", grading.ErrInvalidResponse)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonContentFilter {
		return nil, fmt.Errorf("%w: content filtered", grading.ErrContentBlocked)
	}

	return grading.ParseResponse(choice.Message.Content)
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	code := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	default:
		return &grading.UnavailableError{Provider: "openai", Err: err}
	}

	switch {
	case code == http.StatusTooManyRequests:
		return &grading.RateLimitError{Err: err}
	case code >= http.StatusInternalServerError:
		return &grading.UnavailableError{Provider: "openai", Err: err}
	default:
		return fmt.Errorf("%w: %w", grading.ErrGradingFailed, err)
	}
}
