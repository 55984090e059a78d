package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// PostgresHistoryLog implements the store.HistoryLog interface on the
// attempt_history table. Rows are only ever inserted.
type PostgresHistoryLog struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresHistoryLog creates a new PostgreSQL implementation of the HistoryLog interface.
func NewPostgresHistoryLog(db store.DBTX, logger *slog.Logger) *PostgresHistoryLog {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresHistoryLog{
		db:     db,
		logger: logger.With(slog.String("component", "history_log")),
	}
}

// Ensure PostgresHistoryLog implements store.HistoryLog interface
var _ store.HistoryLog = (*PostgresHistoryLog)(nil)

// Append implements store.HistoryLog.Append.
// A conflicting entry ID leaves the existing row untouched.
func (s *PostgresHistoryLog) Append(ctx context.Context, userID uuid.UUID, entry *domain.AttemptLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("history entry validation failed during append",
			slog.String("error", err.Error()),
			slog.String("concept_id", entry.ConceptID))
		return err
	}

	query := `
		INSERT INTO attempt_history (
			id, user_id, concept_id, concept_label, kb_id, question,
			user_answer, raw_score, score, feedback, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		entry.ID,
		userID,
		entry.ConceptID,
		entry.ConceptLabel,
		entry.KnowledgeBaseID,
		entry.Question,
		entry.Answer,
		entry.RawScore,
		entry.Score,
		entry.Feedback,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to append history entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		log.Debug("history entry already present",
			slog.String("entry_id", entry.ID.String()))
		return nil
	}

	log.Debug("history entry appended",
		slog.String("entry_id", entry.ID.String()),
		slog.String("concept_id", entry.ConceptID))
	return nil
}

// ListAll implements store.HistoryLog.ListAll
func (s *PostgresHistoryLog) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.AttemptLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, concept_id, concept_label, kb_id, question,
			user_answer, raw_score, score, feedback, created_at
		FROM attempt_history
		WHERE user_id = $1
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list history", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*domain.AttemptLogEntry{}
	for rows.Next() {
		var e domain.AttemptLogEntry
		if err := rows.Scan(
			&e.ID,
			&e.ConceptID,
			&e.ConceptLabel,
			&e.KnowledgeBaseID,
			&e.Question,
			&e.Answer,
			&e.RawScore,
			&e.Score,
			&e.Feedback,
			&e.CreatedAt,
		); err != nil {
			log.Error("failed to scan history entry", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return entries, nil
}

// WithTx implements store.HistoryLog.WithTx
func (s *PostgresHistoryLog) WithTx(tx *sql.Tx) store.HistoryLog {
	return &PostgresHistoryLog{
		db:     tx,
		logger: s.logger,
	}
}
