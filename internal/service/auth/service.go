package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// Session is the result of a successful register, login or refresh.
type Session struct {
	User                  *domain.User
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// RegisterInput carries a new account's details.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Service manages accounts and sessions.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// Refresh exchanges a valid refresh token for a new token pair.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

type authService struct {
	users  store.UserStore
	tokens JWTService
	hasher PasswordHasher
	logger *slog.Logger
}

var _ Service = (*authService)(nil)

// NewService creates the auth service.
func NewService(users store.UserStore, tokens JWTService, hasher PasswordHasher, log *slog.Logger) Service {
	if users == nil {
		panic("user store cannot be nil") // ALLOW-PANIC: constructor invariant
	}
	if tokens == nil {
		panic("jwt service cannot be nil") // ALLOW-PANIC: constructor invariant
	}
	if hasher == nil {
		panic("password hasher cannot be nil") // ALLOW-PANIC: constructor invariant
	}
	if log == nil {
		log = slog.Default()
	}
	return &authService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		logger: log.With(slog.String("component", "auth_service")),
	}
}

// Register implements Service.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(strings.TrimSpace(input.Email), strings.TrimSpace(input.DisplayName), input.Password)
	if err != nil {
		return nil, err
	}

	user.HashedPassword, err = s.hasher.Hash(user.Password)
	if err != nil {
		return nil, err
	}
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		log.ErrorContext(ctx, "failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))
	return s.session(ctx, user)
}

// Login implements Service.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		log.DebugContext(ctx, "password mismatch", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return s.session(ctx, user)
}

// Refresh implements Service.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.Validate(ctx, refreshToken, RefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return s.session(ctx, user)
}

func (s *authService) session(ctx context.Context, user *domain.User) (*Session, error) {
	access, accessExp, err := s.tokens.Issue(ctx, user.ID, AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.Issue(ctx, user.ID, RefreshToken)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:                  user,
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}
