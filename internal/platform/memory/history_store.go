package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
)

// HistoryLog implements store.HistoryLog.
type HistoryLog struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]domain.AttemptLogEntry
	seen    map[uuid.UUID]struct{}
}

// NewHistoryLog creates an empty HistoryLog.
func NewHistoryLog() *HistoryLog {
	return &HistoryLog{
		entries: make(map[uuid.UUID][]domain.AttemptLogEntry),
		seen:    make(map[uuid.UUID]struct{}),
	}
}

var _ store.HistoryLog = (*HistoryLog)(nil)

func (h *HistoryLog) Append(_ context.Context, userID uuid.UUID, entry *domain.AttemptLogEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, dup := h.seen[entry.ID]; dup {
		return nil
	}
	h.seen[entry.ID] = struct{}{}
	h.entries[userID] = append(h.entries[userID], *entry)
	return nil
}

func (h *HistoryLog) ListAll(_ context.Context, userID uuid.UUID) ([]*domain.AttemptLogEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*domain.AttemptLogEntry, len(h.entries[userID]))
	for i := range h.entries[userID] {
		e := h.entries[userID][i]
		out[i] = &e
	}
	return out, nil
}

func (h *HistoryLog) WithTx(*sql.Tx) store.HistoryLog { return h }
