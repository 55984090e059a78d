package redis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// storedUser carries the password hash, which domain.User never serializes.
type storedUser struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName"`
	HashedPassword string    `json:"hashedPassword"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserStore implements store.UserStore. Email uniqueness is enforced by
// claiming the lower-cased email key with SETNX.
type UserStore struct {
	rdb    goredis.Cmdable
	keys   Keys
	logger *slog.Logger
}

// NewUserStore creates a Redis-backed UserStore.
func NewUserStore(rdb goredis.Cmdable, keys Keys, logger *slog.Logger) *UserStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		rdb:    rdb,
		keys:   keys,
		logger: logger.With(slog.String("component", "redis_user_store")),
	}
}

var _ store.UserStore = (*UserStore)(nil)

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}
	if err := user.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(storedUser{
		ID:             user.ID,
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		HashedPassword: user.HashedPassword,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	claimed, err := s.rdb.SetNX(ctx, s.keys.UserEmail(user.Email), user.ID.String(), 0).Result()
	if err != nil {
		return mapError(err, store.ErrUserNotFound)
	}
	if !claimed {
		log.Warn("email already exists", slog.String("user_id", user.ID.String()))
		return store.ErrEmailExists
	}

	if err := s.rdb.Set(ctx, s.keys.User(user.ID.String()), raw, 0).Err(); err != nil {
		_ = s.rdb.Del(ctx, s.keys.UserEmail(user.Email)).Err()
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return mapError(err, store.ErrUserNotFound)
	}

	log.Info("user created successfully", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	raw, err := s.rdb.Get(ctx, s.keys.User(id.String())).Bytes()
	if err != nil {
		return nil, mapError(err, store.ErrUserNotFound)
	}

	var su storedUser
	if err := json.Unmarshal(raw, &su); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &domain.User{
		ID:             su.ID,
		Email:          su.Email,
		DisplayName:    su.DisplayName,
		HashedPassword: su.HashedPassword,
		CreatedAt:      su.CreatedAt,
		UpdatedAt:      su.UpdatedAt,
	}, nil
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	idStr, err := s.rdb.Get(ctx, s.keys.UserEmail(email)).Result()
	if err != nil {
		return nil, mapError(err, store.ErrUserNotFound)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt email index for user: %w", err)
	}
	return s.GetByID(ctx, id)
}

// WithTx returns s; see the package documentation.
func (s *UserStore) WithTx(*sql.Tx) store.UserStore { return s }
