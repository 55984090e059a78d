package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// FormatVersion is written to every export. Import accepts only this version.
const FormatVersion = 1

// ErrUnsupportedVersion is returned for documents of another format version.
var ErrUnsupportedVersion = errors.New("unsupported backup version")

// Document is the exported state of one user.
type Document struct {
	Version    int                       `json:"version"`
	ExportedAt time.Time                 `json:"exportedAt"`
	Curricula  []*domain.Curriculum      `json:"curricula"`
	Results    []*domain.ScheduleRecord  `json:"results"`
	History    []*domain.AttemptLogEntry `json:"history"`
}

// Summary counts what an import wrote.
type Summary struct {
	Curricula int `json:"curricula"`
	Results   int `json:"results"`
	History   int `json:"history"`
}

// Service exports and imports user data.
type Service interface {
	Export(ctx context.Context, userID uuid.UUID) (*Document, error)
	// Import validates the whole document before writing anything.
	Import(ctx context.Context, userID uuid.UUID, doc *Document) (*Summary, error)
}

// Stores are the collaborators of the backup service. DB enables a single
// transaction around the import; leave it nil for non-SQL backends.
type Stores struct {
	Results   store.ResultStore
	History   store.HistoryLog
	Curricula store.CurriculumStore
	DB        store.TxBeginner
}

type backupService struct {
	stores Stores
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates the backup service.
func NewService(stores Stores, log *slog.Logger) Service {
	if stores.Results == nil || stores.History == nil || stores.Curricula == nil {
		panic("backup service requires results, history and curriculum stores") // ALLOW-PANIC: constructor invariant
	}
	if log == nil {
		log = slog.Default()
	}
	return &backupService{
		stores: stores,
		now:    time.Now,
		logger: log.With(slog.String("component", "backup_service")),
	}
}

// Export implements Service.
func (s *backupService) Export(ctx context.Context, userID uuid.UUID) (*Document, error) {
	doc := &Document{Version: FormatVersion, ExportedAt: s.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		doc.Curricula, err = s.stores.Curricula.ListAll(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		doc.Results, err = s.stores.Results.ListAll(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		doc.History, err = s.stores.History.ListAll(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to export user data: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "user data exported",
		slog.String("user_id", userID.String()),
		slog.Int("curricula", len(doc.Curricula)),
		slog.Int("results", len(doc.Results)),
		slog.Int("history", len(doc.History)))
	return doc, nil
}

// Import implements Service.
func (s *backupService) Import(ctx context.Context, userID uuid.UUID, doc *Document) (*Summary, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	write := func(ctx context.Context, results store.ResultStore, history store.HistoryLog, curricula store.CurriculumStore) error {
		for _, c := range doc.Curricula {
			if err := curricula.Save(ctx, userID, c); err != nil {
				return fmt.Errorf("failed to import curriculum %q: %w", c.KnowledgeBaseID, err)
			}
		}
		for _, r := range doc.Results {
			if err := results.Put(ctx, userID, r); err != nil {
				return fmt.Errorf("failed to import result %q: %w", r.ConceptID, err)
			}
		}
		for _, e := range doc.History {
			if err := history.Append(ctx, userID, e); err != nil {
				return fmt.Errorf("failed to import history entry %s: %w", e.ID, err)
			}
		}
		return nil
	}

	var err error
	if s.stores.DB != nil {
		err = store.RunInTransaction(ctx, s.stores.DB, func(ctx context.Context, tx *sql.Tx) error {
			return write(ctx, s.stores.Results.WithTx(tx), s.stores.History.WithTx(tx), s.stores.Curricula.WithTx(tx))
		})
	} else {
		err = write(ctx, s.stores.Results, s.stores.History, s.stores.Curricula)
	}
	if err != nil {
		return nil, err
	}

	summary := &Summary{Curricula: len(doc.Curricula), Results: len(doc.Results), History: len(doc.History)}
	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "user data imported",
		slog.String("user_id", userID.String()),
		slog.Any("summary", summary))
	return summary, nil
}

// Validate checks the version and every item of doc.
func Validate(doc *Document) error {
	if doc == nil {
		return domain.NewValidationError("document", "is required", nil)
	}
	if doc.Version != FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	for i, c := range doc.Curricula {
		if c == nil {
			return domain.NewValidationError(fmt.Sprintf("curricula[%d]", i), "is null", nil)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("curricula[%d]: %w", i, err)
		}
	}
	for i, r := range doc.Results {
		if r == nil {
			return domain.NewValidationError(fmt.Sprintf("results[%d]", i), "is null", nil)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("results[%d]: %w", i, err)
		}
	}
	for i, e := range doc.History {
		if e == nil {
			return domain.NewValidationError(fmt.Sprintf("history[%d]", i), "is null", nil)
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("history[%d]: %w", i, err)
		}
	}
	return nil
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Decode reads a document, rejecting unknown fields.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.NewValidationError("document", "is not valid backup JSON", err)
	}
	return &doc, nil
}
