package assessment

import (
	"errors"
	"fmt"

	"github.com/phrazzld/recall-api/internal/domain"
)

// Common error types for the assessment service
var (
	// ErrResultNotFound indicates the concept has never been attempted.
	ErrResultNotFound = errors.New("result not found")

	// ErrCurriculumNotFound indicates no curriculum was saved for the knowledge base.
	ErrCurriculumNotFound = errors.New("curriculum not found")

	// ErrGraderUnavailable indicates an attempt without a score arrived while
	// no grader is configured.
	ErrGraderUnavailable = errors.New("no grader configured; a score is required")

	// ErrInvalidAttempt indicates the attempt input failed validation.
	ErrInvalidAttempt = errors.New("invalid attempt")
)

// ServiceError wraps errors from the assessment service with the operation
// that failed.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "record_attempt")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a ServiceError for operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}

// RecordWriteError reports that the computed schedule record could not be
// stored. Record is what would have been written; nothing was persisted.
type RecordWriteError struct {
	Record *domain.ScheduleRecord
	Err    error
}

func (e *RecordWriteError) Error() string {
	return fmt.Sprintf("failed to store schedule record for %q: %v", e.Record.ConceptID, e.Err)
}

func (e *RecordWriteError) Unwrap() error {
	return e.Err
}
