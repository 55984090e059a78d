package assessment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/domain/curriculum"
	"github.com/phrazzld/recall-api/internal/domain/srs"
	"github.com/phrazzld/recall-api/internal/events"
	"github.com/phrazzld/recall-api/internal/grading"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// Dependencies are the collaborators of the assessment service.
type Dependencies struct {
	Results   store.ResultStore
	History   store.HistoryLog
	Curricula store.CurriculumStore
	Scheduler srs.Service
	Emitter   events.EventEmitter

	// DB enables transactional writes with row locks. Leave nil for
	// backends without SQL transactions.
	DB store.TxBeginner

	// Grader is optional; without it every attempt must carry a score.
	Grader grading.Grader

	// Clock defaults to time.Now.
	Clock func() time.Time
}

var _ Service = (*assessmentService)(nil)

type assessmentService struct {
	results   store.ResultStore
	history   store.HistoryLog
	curricula store.CurriculumStore
	scheduler srs.Service
	emitter   events.EventEmitter
	db        store.TxBeginner
	grader    grading.Grader
	now       func() time.Time
	locks     *keyedMutex
	logger    *slog.Logger
}

// NewService creates the assessment service. It panics when a required
// dependency is missing.
func NewService(deps Dependencies, log *slog.Logger) Service {
	if deps.Results == nil {
		panic("results store cannot be nil") // ALLOW-PANIC: constructor invariant
	}
	if deps.History == nil {
		panic("history log cannot be nil") // ALLOW-PANIC: constructor invariant
	}
	if deps.Curricula == nil {
		panic("curriculum store cannot be nil") // ALLOW-PANIC: constructor invariant
	}
	if deps.Emitter == nil {
		panic("event emitter cannot be nil") // ALLOW-PANIC: constructor invariant
	}
	if deps.Scheduler == nil {
		deps.Scheduler = srs.NewDefaultService()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if log == nil {
		log = slog.Default()
	}

	return &assessmentService{
		results:   deps.Results,
		history:   deps.History,
		curricula: deps.Curricula,
		scheduler: deps.Scheduler,
		emitter:   deps.Emitter,
		db:        deps.DB,
		grader:    deps.Grader,
		now:       deps.Clock,
		locks:     newKeyedMutex(),
		logger:    log.With(slog.String("component", "assessment_service")),
	}
}

// RecordAttempt implements Service.
func (s *assessmentService) RecordAttempt(
	ctx context.Context,
	userID uuid.UUID,
	input AttemptInput,
) (*AttemptOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("concept_id", input.ConceptID),
	)

	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAttempt, domain.ErrEmptyUserID)
	}
	if err := domain.ValidateConceptID(input.ConceptID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAttempt, err)
	}

	raw, feedback := input.RawScore, input.Feedback
	if raw == nil {
		if s.grader == nil {
			return nil, ErrGraderUnavailable
		}
		graded, err := s.grader.Grade(ctx, grading.GradeRequest{
			Context:  input.Context,
			Question: input.Question,
			Answer:   input.Answer,
		})
		if err != nil {
			log.WarnContext(ctx, "grading failed", slog.String("error", err.Error()))
			return nil, NewServiceError("record_attempt", "grading failed", err)
		}
		raw = graded.RawScore
		if feedback == "" {
			feedback = graded.Feedback
		}
	}

	norm := srs.Inspect(raw)
	switch {
	case !norm.Parsed:
		log.WarnContext(ctx, "unparseable score treated as 0", slog.Any("raw_score", raw))
	case norm.Negative:
		log.WarnContext(ctx, "grader returned a negative score",
			slog.Any("raw_score", raw),
			slog.Bool("floored", norm.Floored))
	case norm.Clamped:
		log.WarnContext(ctx, "score above 100 clamped", slog.Any("raw_score", raw))
	}

	unlock := s.locks.Lock(userID.String() + "\x00" + input.ConceptID)
	defer unlock()

	now := s.now().UTC()
	var record *domain.ScheduleRecord
	write := func(ctx context.Context, results store.ResultStore, lockRow bool) error {
		var previous *domain.ScheduleRecord
		var err error
		if lockRow {
			previous, err = results.GetForUpdate(ctx, userID, input.ConceptID)
		} else {
			previous, err = results.Get(ctx, userID, input.ConceptID)
		}
		if err != nil && !store.IsNotFoundError(err) {
			return fmt.Errorf("failed to load previous record: %w", err)
		}

		record, err = s.scheduler.Next(input.ConceptID, previous, norm.Score, now)
		if err != nil {
			return fmt.Errorf("failed to compute schedule: %w", err)
		}
		record.ConceptLabel = input.ConceptLabel
		record.KnowledgeBaseID = input.KnowledgeBaseID
		record.Feedback = feedback
		if previous != nil {
			if record.ConceptLabel == "" {
				record.ConceptLabel = previous.ConceptLabel
			}
			if record.KnowledgeBaseID == "" {
				record.KnowledgeBaseID = previous.KnowledgeBaseID
			}
		}

		if err := results.Put(ctx, userID, record); err != nil {
			return &RecordWriteError{Record: record, Err: err}
		}
		return nil
	}

	var err error
	if s.db != nil {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return write(ctx, s.results.WithTx(tx), true)
		})
	} else {
		err = write(ctx, s.results, false)
	}
	if err != nil {
		var writeErr *RecordWriteError
		if errors.As(err, &writeErr) {
			log.ErrorContext(ctx, "failed to store schedule record", slog.String("error", err.Error()))
			return nil, writeErr
		}
		if errors.Is(err, store.ErrTransactionFailed) && record != nil {
			log.ErrorContext(ctx, "failed to commit schedule record", slog.String("error", err.Error()))
			return nil, &RecordWriteError{Record: record, Err: err}
		}
		log.ErrorContext(ctx, "failed to record attempt", slog.String("error", err.Error()))
		return nil, NewServiceError("record_attempt", "failed to update schedule", err)
	}

	entry := domain.NewAttemptLogEntry(record, input.Question, input.Answer, srs.RawString(raw), now)
	outcome := &AttemptOutcome{Record: record, Entry: entry, Tier: record.Tier()}

	if err := s.history.Append(ctx, userID, entry); err != nil {
		log.WarnContext(ctx, "history append failed, queueing retry",
			slog.String("entry_id", entry.ID.String()),
			slog.String("error", err.Error()))
		s.queueHistoryRetry(ctx, log, userID, entry)
		outcome.HistoryPending = true
	}

	log.DebugContext(ctx, "attempt recorded",
		slog.Int("score", record.Score),
		slog.Int("interval_days", record.IntervalDays),
		slog.Int("repetition_count", record.RepetitionCount),
		slog.Time("next_review_at", record.NextReviewAt))

	return outcome, nil
}

// historyRetryPayload matches task.HistoryAppendPayload on the wire.
type historyRetryPayload struct {
	UserID uuid.UUID               `json:"user_id"`
	Entry  *domain.AttemptLogEntry `json:"entry"`
}

// queueHistoryRetry hands entry to the retry queue. If even that fails the
// entry is logged in full at ERROR level.
func (s *assessmentService) queueHistoryRetry(
	ctx context.Context,
	log *slog.Logger,
	userID uuid.UUID,
	entry *domain.AttemptLogEntry,
) {
	event, err := events.NewTaskRequestEvent(events.TypeHistoryAppend, historyRetryPayload{
		UserID: userID,
		Entry:  entry,
	})
	if err == nil {
		// The request context may end before the retry runs.
		err = s.emitter.EmitEvent(context.WithoutCancel(ctx), event)
	}
	if err != nil {
		log.ErrorContext(ctx, "history entry could not be queued for retry",
			slog.String("error", err.Error()),
			slog.Any("entry", entry))
	}
}

// Result implements Service.
func (s *assessmentService) Result(ctx context.Context, userID uuid.UUID, conceptID string) (*ResultView, error) {
	record, err := s.results.Get(ctx, userID, conceptID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, NewServiceError("get_result", "failed to load result", err)
	}
	return view(record), nil
}

// Results implements Service.
func (s *assessmentService) Results(ctx context.Context, userID uuid.UUID, kbID string) ([]*ResultView, error) {
	records, err := s.listResults(ctx, userID, kbID)
	if err != nil {
		return nil, NewServiceError("list_results", "failed to load results", err)
	}
	return lo.Map(records, func(r *domain.ScheduleRecord, _ int) *ResultView { return view(r) }), nil
}

// DueItems implements Service.
func (s *assessmentService) DueItems(
	ctx context.Context,
	userID uuid.UUID,
	kbID string,
	order srs.ReviewOrder,
) ([]*ResultView, error) {
	records, err := s.listResults(ctx, userID, kbID)
	if err != nil {
		return nil, NewServiceError("due_items", "failed to load results", err)
	}
	due := srs.SortForReview(srs.DueItems(records, s.now().UTC()), order)
	return lo.Map(due, func(r *domain.ScheduleRecord, _ int) *ResultView { return view(r) }), nil
}

// Postpone implements Service.
func (s *assessmentService) Postpone(
	ctx context.Context,
	userID uuid.UUID,
	conceptID string,
	days int,
) (*ResultView, error) {
	unlock := s.locks.Lock(userID.String() + "\x00" + conceptID)
	defer unlock()

	record, err := s.results.Get(ctx, userID, conceptID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, NewServiceError("postpone", "failed to load result", err)
	}

	postponed, err := s.scheduler.Postpone(record, days, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.results.Put(ctx, userID, postponed); err != nil {
		return nil, &RecordWriteError{Record: postponed, Err: err}
	}
	return view(postponed), nil
}

// History implements Service.
func (s *assessmentService) History(ctx context.Context, userID uuid.UUID) ([]*domain.AttemptLogEntry, error) {
	entries, err := s.history.ListAll(ctx, userID)
	if err != nil {
		return nil, NewServiceError("history", "failed to load history", err)
	}
	return entries, nil
}

// SaveCurriculum implements Service.
func (s *assessmentService) SaveCurriculum(ctx context.Context, userID uuid.UUID, c *domain.Curriculum) error {
	if c == nil {
		return domain.NewValidationError("curriculum", "is required", nil)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.curricula.Save(ctx, userID, c); err != nil {
		return NewServiceError("save_curriculum", "failed to save curriculum", err)
	}
	return nil
}

// LearningPath implements Service.
func (s *assessmentService) LearningPath(ctx context.Context, userID uuid.UUID, kbID string) (*LearningPath, error) {
	c, err := s.curricula.Get(ctx, userID, kbID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrCurriculumNotFound
		}
		return nil, NewServiceError("learning_path", "failed to load curriculum", err)
	}

	// Concepts are passed by their latest result regardless of which
	// knowledge base recorded it.
	records, err := s.results.ListAll(ctx, userID)
	if err != nil {
		return nil, NewServiceError("learning_path", "failed to load results", err)
	}

	isPassed := curriculum.PassedFromRecords(records)
	modules, progress := curriculum.Progress(c.Modules, isPassed)
	active := curriculum.ActiveModuleIndex(c.Modules, isPassed)

	return &LearningPath{
		KnowledgeBaseID: c.KnowledgeBaseID,
		Title:           c.Title,
		Modules:         modules,
		ActiveIndex:     active,
		Complete:        active == len(c.Modules),
		Progress:        progress,
	}, nil
}

// Analytics implements Service.
func (s *assessmentService) Analytics(ctx context.Context, userID uuid.UUID, kbID string) (*Analytics, error) {
	records, err := s.listResults(ctx, userID, kbID)
	if err != nil {
		return nil, NewServiceError("analytics", "failed to load results", err)
	}
	entries, err := s.history.ListAll(ctx, userID)
	if err != nil {
		return nil, NewServiceError("analytics", "failed to load history", err)
	}
	if kbID != "" {
		entries = lo.Filter(entries, func(e *domain.AttemptLogEntry, _ int) bool {
			return e.KnowledgeBaseID == kbID
		})
	}
	return computeAnalytics(records, entries, s.now().UTC()), nil
}

func (s *assessmentService) listResults(ctx context.Context, userID uuid.UUID, kbID string) ([]*domain.ScheduleRecord, error) {
	if strings.TrimSpace(kbID) == "" {
		return s.results.ListAll(ctx, userID)
	}
	return s.results.ListByKnowledgeBase(ctx, userID, kbID)
}

func view(r *domain.ScheduleRecord) *ResultView {
	return &ResultView{ScheduleRecord: r, Tier: r.Tier()}
}
