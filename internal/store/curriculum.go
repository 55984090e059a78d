package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

// CurriculumStore persists one curriculum per (user, knowledge base).
type CurriculumStore interface {
	// Save replaces the whole curriculum, keeping module order as given.
	Save(ctx context.Context, userID uuid.UUID, curriculum *domain.Curriculum) error

	// Get returns the curriculum of kbID.
	// Returns ErrCurriculumNotFound if none was saved.
	Get(ctx context.Context, userID uuid.UUID, kbID string) (*domain.Curriculum, error)

	// ListAll returns every curriculum of the user ordered by knowledge base ID.
	ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Curriculum, error)

	WithTx(tx *sql.Tx) CurriculumStore
}
