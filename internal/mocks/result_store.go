package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
)

// MockResultStore implements store.ResultStore for testing. Unset functions
// delegate to Fallback when it is non-nil, otherwise report not found or
// succeed with no data.
type MockResultStore struct {
	GetFn                 func(ctx context.Context, userID uuid.UUID, conceptID string) (*domain.ScheduleRecord, error)
	GetForUpdateFn        func(ctx context.Context, userID uuid.UUID, conceptID string) (*domain.ScheduleRecord, error)
	PutFn                 func(ctx context.Context, userID uuid.UUID, record *domain.ScheduleRecord) error
	ListAllFn             func(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduleRecord, error)
	ListByKnowledgeBaseFn func(ctx context.Context, userID uuid.UUID, kbID string) ([]*domain.ScheduleRecord, error)

	Fallback store.ResultStore

	mu      sync.Mutex
	TxCalls int
}

var _ store.ResultStore = (*MockResultStore)(nil)

// Get implements store.ResultStore.
func (m *MockResultStore) Get(ctx context.Context, userID uuid.UUID, conceptID string) (*domain.ScheduleRecord, error) {
	switch {
	case m.GetFn != nil:
		return m.GetFn(ctx, userID, conceptID)
	case m.Fallback != nil:
		return m.Fallback.Get(ctx, userID, conceptID)
	}
	return nil, store.ErrScheduleRecordNotFound
}

// GetForUpdate implements store.ResultStore.
func (m *MockResultStore) GetForUpdate(ctx context.Context, userID uuid.UUID, conceptID string) (*domain.ScheduleRecord, error) {
	switch {
	case m.GetForUpdateFn != nil:
		return m.GetForUpdateFn(ctx, userID, conceptID)
	case m.Fallback != nil:
		return m.Fallback.GetForUpdate(ctx, userID, conceptID)
	}
	return m.Get(ctx, userID, conceptID)
}

// Put implements store.ResultStore.
func (m *MockResultStore) Put(ctx context.Context, userID uuid.UUID, record *domain.ScheduleRecord) error {
	switch {
	case m.PutFn != nil:
		return m.PutFn(ctx, userID, record)
	case m.Fallback != nil:
		return m.Fallback.Put(ctx, userID, record)
	}
	return nil
}

// ListAll implements store.ResultStore.
func (m *MockResultStore) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduleRecord, error) {
	switch {
	case m.ListAllFn != nil:
		return m.ListAllFn(ctx, userID)
	case m.Fallback != nil:
		return m.Fallback.ListAll(ctx, userID)
	}
	return []*domain.ScheduleRecord{}, nil
}

// ListByKnowledgeBase implements store.ResultStore.
func (m *MockResultStore) ListByKnowledgeBase(ctx context.Context, userID uuid.UUID, kbID string) ([]*domain.ScheduleRecord, error) {
	switch {
	case m.ListByKnowledgeBaseFn != nil:
		return m.ListByKnowledgeBaseFn(ctx, userID, kbID)
	case m.Fallback != nil:
		return m.Fallback.ListByKnowledgeBase(ctx, userID, kbID)
	}
	return []*domain.ScheduleRecord{}, nil
}

// WithTx implements store.ResultStore. It counts calls and returns m.
func (m *MockResultStore) WithTx(*sql.Tx) store.ResultStore {
	m.mu.Lock()
	m.TxCalls++
	m.mu.Unlock()
	return m
}
