package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

const resultColumns = `concept_id, concept_label, kb_id, score, feedback,
	interval_days, repetition_count, next_review_at, updated_at`

// PostgresResultStore implements the store.ResultStore interface
// using a PostgreSQL database as the storage backend.
type PostgresResultStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresResultStore creates a new PostgreSQL implementation of the ResultStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresResultStore(db store.DBTX, logger *slog.Logger) *PostgresResultStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresResultStore{
		db:     db,
		logger: logger.With(slog.String("component", "result_store")),
	}
}

// Ensure PostgresResultStore implements store.ResultStore interface
var _ store.ResultStore = (*PostgresResultStore)(nil)

// Get implements store.ResultStore.Get
func (s *PostgresResultStore) Get(
	ctx context.Context,
	userID uuid.UUID,
	conceptID string,
) (*domain.ScheduleRecord, error) {
	return s.get(ctx, userID, conceptID, "")
}

// GetForUpdate implements store.ResultStore.GetForUpdate.
// It must run inside a transaction for the row lock to be held.
func (s *PostgresResultStore) GetForUpdate(
	ctx context.Context,
	userID uuid.UUID,
	conceptID string,
) (*domain.ScheduleRecord, error) {
	return s.get(ctx, userID, conceptID, " FOR UPDATE")
}

func (s *PostgresResultStore) get(
	ctx context.Context,
	userID uuid.UUID,
	conceptID, lockClause string,
) (*domain.ScheduleRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + resultColumns + `
		FROM schedule_records
		WHERE user_id = $1 AND concept_id = $2` + lockClause

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, userID, conceptID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("schedule record not found",
				slog.String("user_id", userID.String()),
				slog.String("concept_id", conceptID))
			return nil, store.ErrScheduleRecordNotFound
		}
		log.Error("failed to get schedule record",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("concept_id", conceptID))
		return nil, MapError(err)
	}

	return record, nil
}

// Put implements store.ResultStore.Put.
// The primary key (user_id, concept_id) makes the upsert replace any prior record.
func (s *PostgresResultStore) Put(ctx context.Context, userID uuid.UUID, record *domain.ScheduleRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("schedule record validation failed during put",
			slog.String("error", err.Error()),
			slog.String("concept_id", record.ConceptID))
		return err
	}

	query := `
		INSERT INTO schedule_records (user_id, ` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, concept_id) DO UPDATE SET
			concept_label = EXCLUDED.concept_label,
			kb_id = EXCLUDED.kb_id,
			score = EXCLUDED.score,
			feedback = EXCLUDED.feedback,
			interval_days = EXCLUDED.interval_days,
			repetition_count = EXCLUDED.repetition_count,
			next_review_at = EXCLUDED.next_review_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		userID,
		record.ConceptID,
		record.ConceptLabel,
		record.KnowledgeBaseID,
		record.Score,
		record.Feedback,
		record.IntervalDays,
		record.RepetitionCount,
		record.NextReviewAt.UTC(),
		record.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to put schedule record",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("concept_id", record.ConceptID))
		return MapError(err)
	}

	log.Debug("schedule record stored",
		slog.String("user_id", userID.String()),
		slog.String("concept_id", record.ConceptID),
		slog.Int("interval_days", record.IntervalDays))
	return nil
}

// ListAll implements store.ResultStore.ListAll
func (s *PostgresResultStore) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduleRecord, error) {
	query := `SELECT ` + resultColumns + `
		FROM schedule_records
		WHERE user_id = $1
		ORDER BY concept_id`
	return s.list(ctx, query, userID)
}

// ListByKnowledgeBase implements store.ResultStore.ListByKnowledgeBase
func (s *PostgresResultStore) ListByKnowledgeBase(
	ctx context.Context,
	userID uuid.UUID,
	kbID string,
) ([]*domain.ScheduleRecord, error) {
	query := `SELECT ` + resultColumns + `
		FROM schedule_records
		WHERE user_id = $1 AND kb_id = $2
		ORDER BY concept_id`
	return s.list(ctx, query, userID, kbID)
}

func (s *PostgresResultStore) list(ctx context.Context, query string, args ...any) ([]*domain.ScheduleRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list schedule records", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	records := []*domain.ScheduleRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			log.Error("failed to scan schedule record", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating schedule records", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return records, nil
}

// WithTx implements store.ResultStore.WithTx
func (s *PostgresResultStore) WithTx(tx *sql.Tx) store.ResultStore {
	return &PostgresResultStore{
		db:     tx,
		logger: s.logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.ScheduleRecord, error) {
	var r domain.ScheduleRecord
	err := row.Scan(
		&r.ConceptID,
		&r.ConceptLabel,
		&r.KnowledgeBaseID,
		&r.Score,
		&r.Feedback,
		&r.IntervalDays,
		&r.RepetitionCount,
		&r.NextReviewAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.NextReviewAt = r.NextReviewAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}
