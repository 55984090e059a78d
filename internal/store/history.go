package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

// HistoryLog is the append-only attempt log of each user. There is no update
// or delete operation.
type HistoryLog interface {
	// Append adds entry to the user's log. Appending an entry whose ID is
	// already present is a no-op, so retried appends never duplicate.
	Append(ctx context.Context, userID uuid.UUID, entry *domain.AttemptLogEntry) error

	// ListAll returns the user's entries in chronological order.
	ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.AttemptLogEntry, error)

	// WithTx returns a HistoryLog bound to tx. Non-SQL backends return
	// themselves.
	WithTx(tx *sql.Tx) HistoryLog
}
