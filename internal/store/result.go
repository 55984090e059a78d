package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

// ResultStore holds the latest schedule record per (user, concept). The
// knowledge base ID is an attribute of the record, not part of its key.
type ResultStore interface {
	// Get returns the user's record for conceptID.
	// Returns ErrScheduleRecordNotFound if the concept has never been attempted.
	Get(ctx context.Context, userID uuid.UUID, conceptID string) (*domain.ScheduleRecord, error)

	// GetForUpdate is Get that also locks the row until the surrounding
	// transaction ends. Backends without row locks behave like Get.
	GetForUpdate(ctx context.Context, userID uuid.UUID, conceptID string) (*domain.ScheduleRecord, error)

	// Put inserts or replaces the record for (userID, record.ConceptID).
	// Returns validation errors from the domain record if data is invalid.
	Put(ctx context.Context, userID uuid.UUID, record *domain.ScheduleRecord) error

	// ListAll returns every record of the user ordered by concept ID.
	ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduleRecord, error)

	// ListByKnowledgeBase returns the user's records tagged with kbID,
	// ordered by concept ID.
	ListByKnowledgeBase(ctx context.Context, userID uuid.UUID, kbID string) ([]*domain.ScheduleRecord, error)

	// WithTx returns a ResultStore bound to tx. Non-SQL backends return
	// themselves.
	WithTx(tx *sql.Tx) ResultStore
}
