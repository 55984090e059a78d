package memory

import (
	"cmp"
	"context"
	"database/sql"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
)

// CurriculumStore implements store.CurriculumStore.
type CurriculumStore struct {
	mu        sync.RWMutex
	curricula map[uuid.UUID]map[string]*domain.Curriculum
}

// NewCurriculumStore creates an empty CurriculumStore.
func NewCurriculumStore() *CurriculumStore {
	return &CurriculumStore{curricula: make(map[uuid.UUID]map[string]*domain.Curriculum)}
}

var _ store.CurriculumStore = (*CurriculumStore)(nil)

func (s *CurriculumStore) Save(_ context.Context, userID uuid.UUID, c *domain.Curriculum) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byKB, ok := s.curricula[userID]
	if !ok {
		byKB = make(map[string]*domain.Curriculum)
		s.curricula[userID] = byKB
	}
	byKB[c.KnowledgeBaseID] = cloneCurriculum(c)
	return nil
}

func (s *CurriculumStore) Get(_ context.Context, userID uuid.UUID, kbID string) (*domain.Curriculum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.curricula[userID][kbID]
	if !ok {
		return nil, store.ErrCurriculumNotFound
	}
	return cloneCurriculum(c), nil
}

func (s *CurriculumStore) ListAll(_ context.Context, userID uuid.UUID) ([]*domain.Curriculum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Curriculum, 0, len(s.curricula[userID]))
	for _, c := range s.curricula[userID] {
		out = append(out, cloneCurriculum(c))
	}
	slices.SortFunc(out, func(a, b *domain.Curriculum) int {
		return cmp.Compare(a.KnowledgeBaseID, b.KnowledgeBaseID)
	})
	return out, nil
}

func (s *CurriculumStore) WithTx(*sql.Tx) store.CurriculumStore { return s }

func cloneCurriculum(c *domain.Curriculum) *domain.Curriculum {
	out := *c
	out.Modules = make([]domain.Module, len(c.Modules))
	for i, m := range c.Modules {
		m.ConceptIDs = slices.Clone(m.ConceptIDs)
		m.ConceptLabels = maps.Clone(m.ConceptLabels)
		out.Modules[i] = m
	}
	return &out
}
