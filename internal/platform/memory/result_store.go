package memory

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
)

// ResultStore implements store.ResultStore.
type ResultStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]map[string]*domain.ScheduleRecord
}

// NewResultStore creates an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{records: make(map[uuid.UUID]map[string]*domain.ScheduleRecord)}
}

var _ store.ResultStore = (*ResultStore)(nil)

func (s *ResultStore) Get(_ context.Context, userID uuid.UUID, conceptID string) (*domain.ScheduleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[userID][conceptID]
	if !ok {
		return nil, store.ErrScheduleRecordNotFound
	}
	return r.Clone(), nil
}

func (s *ResultStore) GetForUpdate(ctx context.Context, userID uuid.UUID, conceptID string) (*domain.ScheduleRecord, error) {
	return s.Get(ctx, userID, conceptID)
}

func (s *ResultStore) Put(_ context.Context, userID uuid.UUID, record *domain.ScheduleRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byConcept, ok := s.records[userID]
	if !ok {
		byConcept = make(map[string]*domain.ScheduleRecord)
		s.records[userID] = byConcept
	}
	byConcept[record.ConceptID] = record.Clone()
	return nil
}

func (s *ResultStore) ListAll(_ context.Context, userID uuid.UUID) ([]*domain.ScheduleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ScheduleRecord, 0, len(s.records[userID]))
	for _, r := range s.records[userID] {
		out = append(out, r.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.ScheduleRecord) int {
		return cmp.Compare(a.ConceptID, b.ConceptID)
	})
	return out, nil
}

func (s *ResultStore) ListByKnowledgeBase(
	ctx context.Context,
	userID uuid.UUID,
	kbID string,
) ([]*domain.ScheduleRecord, error) {
	all, _ := s.ListAll(ctx, userID)
	return lo.Filter(all, func(r *domain.ScheduleRecord, _ int) bool {
		return r.KnowledgeBaseID == kbID
	}), nil
}

func (s *ResultStore) WithTx(*sql.Tx) store.ResultStore { return s }
