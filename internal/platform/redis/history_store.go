package redis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// HistoryLog implements store.HistoryLog with a list per user plus a set of
// appended entry IDs.
type HistoryLog struct {
	rdb    goredis.Cmdable
	keys   Keys
	logger *slog.Logger
}

// NewHistoryLog creates a Redis-backed HistoryLog.
func NewHistoryLog(rdb goredis.Cmdable, keys Keys, logger *slog.Logger) *HistoryLog {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryLog{
		rdb:    rdb,
		keys:   keys,
		logger: logger.With(slog.String("component", "redis_history_log")),
	}
}

var _ store.HistoryLog = (*HistoryLog)(nil)

// Append implements store.HistoryLog.Append. The entry ID is claimed in the
// ID set first; an ID already present means the entry was appended before.
func (h *HistoryLog) Append(ctx context.Context, userID uuid.UUID, entry *domain.AttemptLogEntry) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	if err := entry.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}

	user := userID.String()
	added, err := h.rdb.SAdd(ctx, h.keys.HistoryIDs(user), entry.ID.String()).Result()
	if err != nil {
		log.Error("failed to claim history entry id",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return mapError(err, store.ErrNotFound)
	}
	if added == 0 {
		log.Debug("history entry already present", slog.String("entry_id", entry.ID.String()))
		return nil
	}

	if err := h.rdb.RPush(ctx, h.keys.History(user), raw).Err(); err != nil {
		// Release the claim so a retry can append the entry.
		if remErr := h.rdb.SRem(ctx, h.keys.HistoryIDs(user), entry.ID.String()).Err(); remErr != nil {
			log.Error("failed to release history entry id",
				slog.String("error", remErr.Error()),
				slog.String("entry_id", entry.ID.String()))
		}
		log.Error("failed to append history entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return mapError(err, store.ErrNotFound)
	}
	return nil
}

// ListAll implements store.HistoryLog.ListAll
func (h *HistoryLog) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.AttemptLogEntry, error) {
	values, err := h.rdb.LRange(ctx, h.keys.History(userID.String()), 0, -1).Result()
	if err != nil {
		return nil, mapError(err, store.ErrNotFound)
	}

	entries := make([]*domain.AttemptLogEntry, 0, len(values))
	for i, raw := range values {
		var e domain.AttemptLogEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("failed to decode history entry %d: %w", i, err)
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

// WithTx returns h; see the package documentation.
func (h *HistoryLog) WithTx(*sql.Tx) store.HistoryLog { return h }
