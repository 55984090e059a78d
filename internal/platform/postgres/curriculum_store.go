package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// PostgresCurriculumStore implements the store.CurriculumStore interface.
// Modules are stored as a JSONB array so their order survives round trips.
type PostgresCurriculumStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCurriculumStore creates a new PostgreSQL implementation of the CurriculumStore interface.
func NewPostgresCurriculumStore(db store.DBTX, logger *slog.Logger) *PostgresCurriculumStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCurriculumStore{
		db:     db,
		logger: logger.With(slog.String("component", "curriculum_store")),
	}
}

// Ensure PostgresCurriculumStore implements store.CurriculumStore interface
var _ store.CurriculumStore = (*PostgresCurriculumStore)(nil)

// Save implements store.CurriculumStore.Save
func (s *PostgresCurriculumStore) Save(ctx context.Context, userID uuid.UUID, c *domain.Curriculum) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := c.Validate(); err != nil {
		log.Warn("curriculum validation failed during save",
			slog.String("error", err.Error()),
			slog.String("kb_id", c.KnowledgeBaseID))
		return err
	}

	modules, err := json.Marshal(c.Modules)
	if err != nil {
		return fmt.Errorf("failed to encode modules: %w", err)
	}

	query := `
		INSERT INTO curricula (user_id, kb_id, title, modules, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, kb_id) DO UPDATE SET
			title = EXCLUDED.title,
			modules = EXCLUDED.modules,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query,
		userID, c.KnowledgeBaseID, c.Title, modules, c.UpdatedAt.UTC(),
	); err != nil {
		log.Error("failed to save curriculum",
			slog.String("error", err.Error()),
			slog.String("kb_id", c.KnowledgeBaseID))
		return MapError(err)
	}

	log.Debug("curriculum saved",
		slog.String("kb_id", c.KnowledgeBaseID),
		slog.Int("module_count", len(c.Modules)))
	return nil
}

// Get implements store.CurriculumStore.Get
func (s *PostgresCurriculumStore) Get(ctx context.Context, userID uuid.UUID, kbID string) (*domain.Curriculum, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT kb_id, title, modules, updated_at
		FROM curricula
		WHERE user_id = $1 AND kb_id = $2
	`
	c, err := scanCurriculum(s.db.QueryRowContext(ctx, query, userID, kbID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCurriculumNotFound
		}
		log.Error("failed to get curriculum",
			slog.String("error", err.Error()),
			slog.String("kb_id", kbID))
		return nil, MapError(err)
	}
	return c, nil
}

// ListAll implements store.CurriculumStore.ListAll
func (s *PostgresCurriculumStore) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Curriculum, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT kb_id, title, modules, updated_at
		FROM curricula
		WHERE user_id = $1
		ORDER BY kb_id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list curricula", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	curricula := []*domain.Curriculum{}
	for rows.Next() {
		c, err := scanCurriculum(rows)
		if err != nil {
			return nil, MapError(err)
		}
		curricula = append(curricula, c)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return curricula, nil
}

// WithTx implements store.CurriculumStore.WithTx
func (s *PostgresCurriculumStore) WithTx(tx *sql.Tx) store.CurriculumStore {
	return &PostgresCurriculumStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanCurriculum(row rowScanner) (*domain.Curriculum, error) {
	var (
		c       domain.Curriculum
		modules []byte
	)
	if err := row.Scan(&c.KnowledgeBaseID, &c.Title, &modules, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(modules, &c.Modules); err != nil {
		return nil, fmt.Errorf("failed to decode modules: %w", err)
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
