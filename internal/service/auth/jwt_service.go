package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenKind separates access tokens from refresh tokens. A token of one kind
// is never accepted where the other is expected.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// JWTService signs and validates the tokens handed to clients.
type JWTService interface {
	// Issue signs a token of the given kind for userID and returns it with its
	// expiry.
	Issue(ctx context.Context, userID uuid.UUID, kind TokenKind) (string, time.Time, error)

	// Validate checks signature, lifetime and kind and returns the claims.
	// Access tokens fail with ErrInvalidToken / ErrExpiredToken /
	// ErrTokenNotYetValid; refresh tokens with ErrInvalidRefreshToken /
	// ErrExpiredRefreshToken. A token of the other kind fails with
	// ErrWrongTokenType.
	Validate(ctx context.Context, token string, kind TokenKind) (*Claims, error)
}

// Claims are the validated contents of a token.
type Claims struct {
	UserID    uuid.UUID
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
