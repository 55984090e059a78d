package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/recall-api/internal/api/shared"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/domain/srs"
	"github.com/phrazzld/recall-api/internal/grading"
	"github.com/phrazzld/recall-api/internal/service/assessment"
	"github.com/phrazzld/recall-api/internal/service/auth"
	"github.com/phrazzld/recall-api/internal/service/backup"
	"github.com/phrazzld/recall-api/internal/store"
)

// MapErrorToStatusCode maps service errors to HTTP status codes without
// exposing their types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, assessment.ErrResultNotFound),
		errors.Is(err, assessment.ErrCurriculumNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, assessment.ErrInvalidAttempt),
		errors.Is(err, backup.ErrUnsupportedVersion),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmptyEmail),
		errors.Is(err, domain.ErrEmptyPassword),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrDisplayNameTooLong),
		errors.Is(err, srs.ErrInvalidDays),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, grading.ErrEmptyAnswer),
		errors.Is(err, grading.ErrEmptyQuestion),
		isValidationErrors(err):
		return http.StatusBadRequest

	case errors.Is(err, grading.ErrContentBlocked):
		return http.StatusUnprocessableEntity

	case errors.Is(err, assessment.ErrGraderUnavailable),
		errors.Is(err, grading.ErrTransientFailure):
		return http.StatusServiceUnavailable

	case errors.Is(err, grading.ErrInvalidResponse),
		errors.Is(err, grading.ErrGradingFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return SanitizeValidationError(verrs)
	}
	var domainErr *domain.ValidationError
	if errors.As(err, &domainErr) {
		return fmt.Sprintf("Invalid %s: %s", domainErr.Field, domainErr.Message)
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"
	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, auth.ErrEmailTaken):
		return "Email already exists"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"

	case errors.Is(err, assessment.ErrResultNotFound):
		return "No result recorded for this concept"
	case errors.Is(err, assessment.ErrCurriculumNotFound):
		return "No curriculum saved for this knowledge base"
	case errors.Is(err, assessment.ErrGraderUnavailable):
		return "Answer grading is not configured; include a score"

	case errors.Is(err, grading.ErrEmptyAnswer):
		return "Answer is required for grading"
	case errors.Is(err, grading.ErrEmptyQuestion):
		return "Question is required for grading"
	case errors.Is(err, grading.ErrContentBlocked):
		return "The answer could not be graded because the content was blocked"
	case errors.Is(err, grading.ErrTransientFailure):
		return "The grading service is temporarily unavailable"
	case errors.Is(err, grading.ErrInvalidResponse),
		errors.Is(err, grading.ErrGradingFailed):
		return "The grading service returned an unusable result"

	case errors.Is(err, backup.ErrUnsupportedVersion):
		return "Unsupported backup version"
	case errors.Is(err, srs.ErrInvalidDays):
		return "Days must be at least 1"

	case errors.Is(err, domain.ErrInvalidEmail):
		return "Invalid email format"
	case errors.Is(err, domain.ErrEmptyEmail):
		return "Email is required"
	case errors.Is(err, domain.ErrEmptyPassword):
		return "Password is required"
	case errors.Is(err, domain.ErrPasswordTooShort):
		return "Password must be at least 12 characters long"
	case errors.Is(err, domain.ErrPasswordTooLong):
		return "Password must be at most 72 characters long"
	case errors.Is(err, domain.ErrDisplayNameTooLong):
		return "Display name must be at most 64 characters long"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a message naming the
// first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min", "gte", "gt":
		return "too short or too small"
	case "max", "lte", "lt":
		return "too long or too large"
	case "oneof":
		return "invalid value"
	case "dive":
		return "invalid element"
	default:
		return "validation failed"
	}
}

func isValidationErrors(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

// HandleAPIError writes the mapped status and safe message for err, logging
// the redacted detail. A non-empty message overrides the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
