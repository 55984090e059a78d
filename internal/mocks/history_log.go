package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
)

// MockHistoryLog implements store.HistoryLog for testing. Without AppendFn it
// keeps appended entries in memory.
type MockHistoryLog struct {
	AppendFn  func(ctx context.Context, userID uuid.UUID, entry *domain.AttemptLogEntry) error
	ListAllFn func(ctx context.Context, userID uuid.UUID) ([]*domain.AttemptLogEntry, error)

	mu      sync.Mutex
	Entries []*domain.AttemptLogEntry
}

var _ store.HistoryLog = (*MockHistoryLog)(nil)

// Append implements store.HistoryLog.
func (m *MockHistoryLog) Append(ctx context.Context, userID uuid.UUID, entry *domain.AttemptLogEntry) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, userID, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

// ListAll implements store.HistoryLog.
func (m *MockHistoryLog) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.AttemptLogEntry, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AttemptLogEntry{}, m.Entries...), nil
}

// WithTx implements store.HistoryLog.
func (m *MockHistoryLog) WithTx(*sql.Tx) store.HistoryLog { return m }
