package redis

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
)

// CurriculumStore implements store.CurriculumStore with one hash per user.
type CurriculumStore struct {
	rdb    goredis.Cmdable
	keys   Keys
	logger *slog.Logger
}

// NewCurriculumStore creates a Redis-backed CurriculumStore.
func NewCurriculumStore(rdb goredis.Cmdable, keys Keys, logger *slog.Logger) *CurriculumStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CurriculumStore{
		rdb:    rdb,
		keys:   keys,
		logger: logger.With(slog.String("component", "redis_curriculum_store")),
	}
}

var _ store.CurriculumStore = (*CurriculumStore)(nil)

// Save implements store.CurriculumStore.Save
func (s *CurriculumStore) Save(ctx context.Context, userID uuid.UUID, c *domain.Curriculum) error {
	if err := c.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode curriculum: %w", err)
	}
	err = s.rdb.HSet(ctx, s.keys.Curricula(userID.String()), c.KnowledgeBaseID, raw).Err()
	return mapError(err, store.ErrCurriculumNotFound)
}

// Get implements store.CurriculumStore.Get
func (s *CurriculumStore) Get(ctx context.Context, userID uuid.UUID, kbID string) (*domain.Curriculum, error) {
	raw, err := s.rdb.HGet(ctx, s.keys.Curricula(userID.String()), kbID).Bytes()
	if err != nil {
		return nil, mapError(err, store.ErrCurriculumNotFound)
	}
	var c domain.Curriculum
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode curriculum %q: %w", kbID, err)
	}
	return &c, nil
}

// ListAll implements store.CurriculumStore.ListAll
func (s *CurriculumStore) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Curriculum, error) {
	values, err := s.rdb.HGetAll(ctx, s.keys.Curricula(userID.String())).Result()
	if err != nil {
		return nil, mapError(err, store.ErrCurriculumNotFound)
	}

	out := make([]*domain.Curriculum, 0, len(values))
	for kbID, raw := range values {
		var c domain.Curriculum
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("failed to decode curriculum %q: %w", kbID, err)
		}
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Curriculum) int {
		return cmp.Compare(a.KnowledgeBaseID, b.KnowledgeBaseID)
	})
	return out, nil
}

// WithTx returns s; see the package documentation.
func (s *CurriculumStore) WithTx(*sql.Tx) store.CurriculumStore { return s }
