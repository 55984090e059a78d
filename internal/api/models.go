package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/service/assessment"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	Password    string `json:"password"    validate:"required,min=12,max=72"`
	DisplayName string `json:"displayName" validate:"max=64"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	// ExpiresAt is when the access token expires.
	ExpiresAt time.Time `json:"expires_at"`
}

// AttemptRequest records one answer. Omit score to have the configured
// grader score the answer.
type AttemptRequest struct {
	ConceptID       string `json:"conceptId"    validate:"required"`
	ConceptLabel    string `json:"conceptLabel" validate:"max=256"`
	KnowledgeBaseID string `json:"kbId"         validate:"max=256"`
	Context         string `json:"context"      validate:"max=50000"`
	Question        string `json:"question"     validate:"max=10000"`
	Answer          string `json:"userAnswer"   validate:"max=20000"`
	// Score is a number or a numeric string, on a 0-10 or 0-100 scale.
	Score    any    `json:"score"`
	Feedback string `json:"feedback" validate:"max=10000"`
}

// AttemptResponse is returned after an attempt was stored.
type AttemptResponse struct {
	Result         *assessment.ResultView  `json:"result"`
	Entry          *domain.AttemptLogEntry `json:"entry"`
	HistoryPending bool                    `json:"historyPending"`
}

// RecordWriteErrorResponse carries the record that could not be stored.
type RecordWriteErrorResponse struct {
	Error   string                 `json:"error"`
	TraceID string                 `json:"trace_id,omitempty"`
	Record  *domain.ScheduleRecord `json:"record"`
}

// PostponeRequest moves a review forward.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,gte=1,lte=365"`
}

// CurriculumRequest replaces the curriculum of the knowledge base in the path.
type CurriculumRequest struct {
	Title   string          `json:"title"   validate:"max=256"`
	Modules []domain.Module `json:"modules"`
}

// ListResponse wraps list results so the body is always an object.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}
