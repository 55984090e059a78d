package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/phrazzld/recall-api/internal/platform/logger"
)

// RetryConfig controls the retry decorator.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the wait before the first retry; it doubles each time.
	BaseDelay time.Duration
	// MaxDelay caps a single wait. Zero means no cap.
	MaxDelay time.Duration
}

// retryGrader wraps a Grader with exponential backoff for transient failures.
type retryGrader struct {
	inner  Grader
	config RetryConfig
	logger *slog.Logger
}

// WithRetry decorates g so transient failures are retried. An invalid model
// response is retried once; blocked content and context errors never are.
func WithRetry(g Grader, cfg RetryConfig, log *slog.Logger) Grader {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if log == nil {
		log = slog.Default()
	}
	return &retryGrader{
		inner:  g,
		config: cfg,
		logger: log.With(slog.String("component", "grader_retry")),
	}
}

func (r *retryGrader) Grade(ctx context.Context, req GradeRequest) (*GradeResult, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)
	invalidRetried := false
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		result, err := r.inner.Grade(ctx, req)
		if err == nil {
			if attempt > 0 {
				log.InfoContext(ctx, "grading succeeded after retry", slog.Int("attempt", attempt+1))
			}
			return result, nil
		}
		lastErr = err

		if !shouldRetry(err, &invalidRetried) {
			return nil, err
		}
		if attempt == r.config.MaxRetries {
			break
		}

		wait := r.backoff(attempt, err)
		log.WarnContext(ctx, "grading failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", r.config.MaxRetries+1),
			slog.Duration("delay", wait),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrTransientFailure, ctx.Err())
		case <-time.After(wait):
		}
	}

	log.WarnContext(ctx, "maximum grading attempts reached",
		slog.Int("max_retries", r.config.MaxRetries))
	return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %w",
		ErrTransientFailure, r.config.MaxRetries, lastErr)
}

func shouldRetry(err error, invalidRetried *bool) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrContentBlocked), errors.Is(err, ErrInvalidConfig):
		return false
	case errors.Is(err, ErrEmptyAnswer), errors.Is(err, ErrEmptyQuestion):
		return false
	case errors.Is(err, ErrInvalidResponse):
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	default:
		return IsTransient(err)
	}
}

// backoff returns BaseDelay * 2^attempt with ±20% jitter, or the provider's
// Retry-After hint when one was given.
func (r *retryGrader) backoff(attempt int, err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.BaseDelay) * math.Pow(2, float64(attempt))
	if r.config.MaxDelay > 0 && wait > float64(r.config.MaxDelay) {
		wait = float64(r.config.MaxDelay)
	}
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
