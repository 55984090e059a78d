package grading

import (
	"errors"
	"fmt"
	"time"
)

// Common errors returned by graders.
var (
	// ErrGradingFailed is returned when grading fails for any general reason
	ErrGradingFailed = errors.New("failed to grade answer")

	// ErrInvalidResponse is returned when the model output cannot be parsed or
	// does not match the response schema
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the provider refuses the content
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during grading")

	// ErrInvalidConfig is returned when the grader configuration is invalid
	ErrInvalidConfig = errors.New("invalid grader configuration")

	// ErrEmptyAnswer is returned when there is nothing to grade
	ErrEmptyAnswer = errors.New("answer cannot be empty")

	// ErrEmptyQuestion is returned when the question is missing
	ErrEmptyQuestion = errors.New("question cannot be empty")
)

// RateLimitError reports a 429 from the provider. It matches ErrTransientFailure.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() []error { return []error{ErrTransientFailure, e.Err} }

// UnavailableError reports a provider outage or network failure. It matches
// ErrTransientFailure.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() []error { return []error{ErrTransientFailure, e.Err} }

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientFailure)
}
