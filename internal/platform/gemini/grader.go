package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/grading"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

const maxOutputTokens = 512

// models maps friendly aliases to Gemini model IDs.
var models = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.0-pro",
}

// GeminiGrader implements grading.Grader using the Gemini API.
type GeminiGrader struct {
	logger  *slog.Logger
	client  *genai.Client
	prompt  *grading.Prompt
	model   string
	timeout time.Duration
}

var _ grading.Grader = (*GeminiGrader)(nil)

// NewGeminiGrader creates a grader from the LLM configuration. The prompt
// template is loaded once here.
func NewGeminiGrader(ctx context.Context, log *slog.Logger, cfg config.LLMConfig) (*GeminiGrader, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", grading.ErrInvalidConfig)
	}

	prompt, err := grading.LoadPrompt(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", grading.ErrInvalidConfig, err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if id, ok := models[model]; ok {
		model = id
	}

	return &GeminiGrader{
		logger:  log.With(slog.String("component", "gemini_grader")),
		client:  client,
		prompt:  prompt,
		model:   model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// Grade sends one grading request to Gemini.
func (g *GeminiGrader) Grade(ctx context.Context, req grading.GradeRequest) (*grading.GradeResult, error) {
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

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: maxOutputTokens,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: grading.SystemInstruction}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: text}},
	}}

	log.DebugContext(ctx, "calling Gemini", slog.String("model", g.model), slog.Int("prompt_length", len(text)))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genConfig)
	if err != nil {
		log.ErrorContext(ctx, "Gemini API call failed", slog.String("error", err.Error()))
		return nil, mapError(err)
	}

	if err := checkBlocked(resp); err != nil {
		return nil, err
	}

	result, err := grading.ParseResponse(resp.Text())
	if err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "Gemini grading complete", slog.Any("raw_score", result.RawScore))
	return result, nil
}

// responseSchema mirrors grading.ResponseSchema in Gemini's schema dialect.
// Gemini has no union types, so the score is requested as a number.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":    {Type: genai.TypeNumber},
			"feedback": {Type: genai.TypeString},
		},
		Required: []string{"score", "feedback"},
	}
}

func checkBlocked(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("%w: nil response", grading.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("%w: prompt blocked: %s", grading.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("%w: no candidates in response", grading.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return fmt.Errorf("%w: content blocked by safety filters", grading.ErrContentBlocked)
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	default:
		return &grading.UnavailableError{Provider: "gemini", Err: err}
	}

	switch {
	case code == http.StatusTooManyRequests:
		return &grading.RateLimitError{Err: err}
	case code >= http.StatusInternalServerError:
		return &grading.UnavailableError{Provider: "gemini", Err: err}
	default:
		return fmt.Errorf("%w: %w", grading.ErrGradingFailed, err)
	}
}
