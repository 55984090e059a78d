package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing. Without custom
// functions, Issue returns Token and Err, and Validate returns a Claims for
// UserID and ValidateErr.
type MockJWTService struct {
	IssueFn    func(ctx context.Context, userID uuid.UUID, kind auth.TokenKind) (string, time.Time, error)
	ValidateFn func(ctx context.Context, token string, kind auth.TokenKind) (*auth.Claims, error)

	Token       string
	ExpiresAt   time.Time
	Err         error
	UserID      uuid.UUID
	ValidateErr error
}

var _ auth.JWTService = (*MockJWTService)(nil)

// Issue implements auth.JWTService.
func (m *MockJWTService) Issue(ctx context.Context, userID uuid.UUID, kind auth.TokenKind) (string, time.Time, error) {
	if m.IssueFn != nil {
		return m.IssueFn(ctx, userID, kind)
	}
	return m.Token, m.ExpiresAt, m.Err
}

// Validate implements auth.JWTService.
func (m *MockJWTService) Validate(ctx context.Context, token string, kind auth.TokenKind) (*auth.Claims, error) {
	if m.ValidateFn != nil {
		return m.ValidateFn(ctx, token, kind)
	}
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	return &auth.Claims{UserID: m.UserID, Kind: kind, ExpiresAt: m.ExpiresAt}, nil
}
