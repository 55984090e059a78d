package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/platform/logger"
)

// MinSecretLength is the shortest accepted HMAC signing secret.
const MinSecretLength = 32

// defaultClockSkew is the leeway applied to time claims.
const defaultClockSkew = 2 * time.Minute

type hmacJWTService struct {
	signingKey []byte
	lifetimes  map[TokenKind]time.Duration
	now        func() time.Time
	clockSkew  time.Duration
}

type tokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	Kind   TokenKind `json:"type"`
	jwt.RegisteredClaims
}

var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a JWTService signing with HMAC-SHA256.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	return newHMACJWTService(cfg, time.Now)
}

func newHMACJWTService(cfg config.AuthConfig, now func() time.Time) (*hmacJWTService, error) {
	if len(cfg.JWTSecret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	}
	if cfg.TokenLifetimeMinutes <= 0 || cfg.RefreshTokenLifetimeMinutes <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &hmacJWTService{
		signingKey: []byte(cfg.JWTSecret),
		lifetimes: map[TokenKind]time.Duration{
			AccessToken:  time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
			RefreshToken: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		},
		now:       now,
		clockSkew: defaultClockSkew,
	}, nil
}

// Issue implements JWTService.
func (s *hmacJWTService) Issue(ctx context.Context, userID uuid.UUID, kind TokenKind) (string, time.Time, error) {
	lifetime, ok := s.lifetimes[kind]
	if !ok {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrWrongTokenType, kind)
	}

	now := s.now()
	expiresAt := now.Add(lifetime)
	claims := tokenClaims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign token",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("token_type", string(kind)))
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	// NumericDate truncates to seconds.
	return signed, claims.ExpiresAt.Time, nil
}

// Validate implements JWTService.
func (s *hmacJWTService) Validate(ctx context.Context, token string, kind TokenKind) (*Claims, error) {
	log := logger.FromContext(ctx).With(slog.String("token_type", string(kind)))
	invalid, expired := ErrInvalidToken, ErrExpiredToken
	if kind == RefreshToken {
		invalid, expired = ErrInvalidRefreshToken, ErrExpiredRefreshToken
	}

	parsed, err := jwt.ParseWithClaims(
		token,
		&tokenClaims{},
		func(*jwt.Token) (any, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		log.Debug("token validation failed", slog.String("error", err.Error()))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, expired
		case errors.Is(err, jwt.ErrTokenNotValidYet) && kind == AccessToken:
			return nil, ErrTokenNotYetValid
		default:
			return nil, invalid
		}
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || claims.UserID == uuid.Nil {
		return nil, invalid
	}
	if claims.Kind != kind {
		log.Debug("token validation failed: wrong token type", slog.String("actual", string(claims.Kind)))
		return nil, ErrWrongTokenType
	}

	return &Claims{
		UserID:    claims.UserID,
		Kind:      claims.Kind,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}, nil
}
