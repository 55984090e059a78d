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
	"github.com/samber/lo"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// ResultStore implements store.ResultStore with one hash per user.
type ResultStore struct {
	rdb    goredis.Cmdable
	keys   Keys
	logger *slog.Logger
}

// NewResultStore creates a Redis-backed ResultStore.
func NewResultStore(rdb goredis.Cmdable, keys Keys, logger *slog.Logger) *ResultStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultStore{
		rdb:    rdb,
		keys:   keys,
		logger: logger.With(slog.String("component", "redis_result_store")),
	}
}

var _ store.ResultStore = (*ResultStore)(nil)

// Get implements store.ResultStore.Get
func (s *ResultStore) Get(ctx context.Context, userID uuid.UUID, conceptID string) (*domain.ScheduleRecord, error) {
	raw, err := s.rdb.HGet(ctx, s.keys.Results(userID.String()), conceptID).Bytes()
	if err != nil {
		return nil, mapError(err, store.ErrScheduleRecordNotFound)
	}

	var record domain.ScheduleRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to decode schedule record %q: %w", conceptID, err)
	}
	return &record, nil
}

// GetForUpdate behaves like Get; Redis hashes have no row locks.
func (s *ResultStore) GetForUpdate(ctx context.Context, userID uuid.UUID, conceptID string) (*domain.ScheduleRecord, error) {
	return s.Get(ctx, userID, conceptID)
}

// Put implements store.ResultStore.Put
func (s *ResultStore) Put(ctx context.Context, userID uuid.UUID, record *domain.ScheduleRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode schedule record: %w", err)
	}

	if err := s.rdb.HSet(ctx, s.keys.Results(userID.String()), record.ConceptID, raw).Err(); err != nil {
		log.Error("failed to put schedule record",
			slog.String("error", err.Error()),
			slog.String("concept_id", record.ConceptID))
		return mapError(err, store.ErrScheduleRecordNotFound)
	}
	return nil
}

// ListAll implements store.ResultStore.ListAll
func (s *ResultStore) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduleRecord, error) {
	values, err := s.rdb.HGetAll(ctx, s.keys.Results(userID.String())).Result()
	if err != nil {
		return nil, mapError(err, store.ErrScheduleRecordNotFound)
	}

	records := make([]*domain.ScheduleRecord, 0, len(values))
	for conceptID, raw := range values {
		var record domain.ScheduleRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to decode schedule record %q: %w", conceptID, err)
		}
		records = append(records, &record)
	}

	slices.SortFunc(records, func(a, b *domain.ScheduleRecord) int {
		return cmp.Compare(a.ConceptID, b.ConceptID)
	})
	return records, nil
}

// ListByKnowledgeBase implements store.ResultStore.ListByKnowledgeBase
func (s *ResultStore) ListByKnowledgeBase(
	ctx context.Context,
	userID uuid.UUID,
	kbID string,
) ([]*domain.ScheduleRecord, error) {
	all, err := s.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(r *domain.ScheduleRecord, _ int) bool {
		return r.KnowledgeBaseID == kbID
	}), nil
}

// WithTx returns s; see the package documentation.
func (s *ResultStore) WithTx(*sql.Tx) store.ResultStore { return s }
