package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/grading"
	"github.com/phrazzld/recall-api/internal/platform/logger"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5"

const maxTokens = 512

var models = map[string]string{
	"haiku":  "claude-haiku-4-5",
	"sonnet": "claude-sonnet-4-5",
}

// MessagesGrader implements grading.Grader with the Messages API.
type MessagesGrader struct {
	logger  *slog.Logger
	client  *anthropicsdk.Client
	prompt  *grading.Prompt
	model   string
	timeout time.Duration
}

var _ grading.Grader = (*MessagesGrader)(nil)

// NewMessagesGrader creates a grader from the LLM configuration.
func NewMessagesGrader(log *slog.Logger, cfg config.LLMConfig) (*MessagesGrader, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key cannot be empty", grading.ErrInvalidConfig)
	}

	prompt, err := grading.LoadPrompt(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	// The SDK retries on its own by default; the grading decorator owns retries.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropicsdk.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if id, ok := models[model]; ok {
		model = id
	}

	return &MessagesGrader{
		logger:  log.With(slog.String("component", "anthropic_grader")),
		client:  &client,
		prompt:  prompt,
		model:   model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// Grade sends one grading request.
func (g *MessagesGrader) Grade(ctx context.Context, req grading.GradeRequest) (*grading.GradeResult, error) {
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

	msg, err := g.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(g.model),
		MaxTokens: maxTokens,
		System:    []anthropicsdk.TextBlockParam{{Text: grading.SystemInstruction}},
		Messages: []anthropicsdk.MessageParam{{
			Role:    anthropicsdk.MessageParamRoleUser,
			Content: []anthropicsdk.ContentBlockParamUnion{anthropicsdk.NewTextBlock(text)},
		}},
	})
	if err != nil {
		log.ErrorContext(ctx, "Anthropic API call failed",
			slog.String("model", g.model),
			slog.String("error", err.Error()))
		return nil, mapError(err)
	}

	if msg.StopReason == anthropicsdk.StopReasonRefusal {
		return nil, fmt.Errorf("%w: model refused", grading.ErrContentBlocked)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("%w: no text content in response", grading.ErrInvalidResponse)
	}

	return grading.ParseResponse(sb.String())
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *anthropicsdk.Error
	if !errors.As(err, &apiErr) {
		return &grading.UnavailableError{Provider: "anthropic", Err: err}
	}

	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return &grading.RateLimitError{Err: err}
	case apiErr.StatusCode >= http.StatusInternalServerError:
		return &grading.UnavailableError{Provider: "anthropic", Err: err}
	default:
		return fmt.Errorf("%w: %w", grading.ErrGradingFailed, err)
	}
}
