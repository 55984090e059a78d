package assessment_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/domain/srs"
	"github.com/phrazzld/recall-api/internal/events"
	"github.com/phrazzld/recall-api/internal/grading"
	"github.com/phrazzld/recall-api/internal/mocks"
	"github.com/phrazzld/recall-api/internal/platform/memory"
	"github.com/phrazzld/recall-api/internal/service/assessment"
	"github.com/phrazzld/recall-api/internal/store"
)

var testNow = time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

type fixture struct {
	results   *memory.ResultStore
	history   *memory.HistoryLog
	curricula *memory.CurriculumStore
	emitter   *mocks.MockEventEmitter
	now       time.Time
}

func newFixture() *fixture {
	return &fixture{
		results:   memory.NewResultStore(),
		history:   memory.NewHistoryLog(),
		curricula: memory.NewCurriculumStore(),
		emitter:   &mocks.MockEventEmitter{},
		now:       testNow,
	}
}

func (f *fixture) deps() assessment.Dependencies {
	return assessment.Dependencies{
		Results:   f.results,
		History:   f.history,
		Curricula: f.curricula,
		Emitter:   f.emitter,
		Clock:     func() time.Time { return f.now },
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewService_PanicsOnMissingDependencies(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name   string
		mutate func(*assessment.Dependencies)
	}{
		{"results", func(d *assessment.Dependencies) { d.Results = nil }},
		{"history", func(d *assessment.Dependencies) { d.History = nil }},
		{"curricula", func(d *assessment.Dependencies) { d.Curricula = nil }},
		{"emitter", func(d *assessment.Dependencies) { d.Emitter = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := f.deps()
			tt.mutate(&deps)
			assert.Panics(t, func() { assessment.NewService(deps, nil) })
		})
	}
}

func TestRecordAttempt_ProvidedScore(t *testing.T) {
	f := newFixture()
	svc := assessment.NewService(f.deps(), discard())
	ctx := context.Background()
	user := uuid.New()

	tests := []struct {
		name      string
		raw       any
		wantScore int
		wantRaw   string
		wantTier  domain.MasteryTier
	}{
		{"ten point scale", json.Number("8"), 80, "8", domain.MasteryPassing},
		{"percentage string", "92", 92, "92", domain.MasteryMastered},
		{"clamped", 140, 100, "140", domain.MasteryMastered},
		{"unparseable", "great", 0, "great", domain.MasteryLearning},
		{"negative kept", -5, -5, "-5", domain.MasteryLearning},
		{"huge negative floored", json.Number("-1e20"), -2147483648, "-1e20", domain.MasteryLearning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.RecordAttempt(ctx, user, assessment.AttemptInput{
				ConceptID: "concept-" + tt.name,
				Question:  "q",
				Answer:    "a",
				RawScore:  tt.raw,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, out.Record.Score)
			assert.Equal(t, tt.wantTier, out.Tier)
			assert.Equal(t, tt.wantRaw, out.Entry.RawScore)
			assert.False(t, out.HistoryPending)
		})
	}
}

func TestRecordAttempt_SchedulesAndLogs(t *testing.T) {
	f := newFixture()
	svc := assessment.NewService(f.deps(), discard())
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.RecordAttempt(ctx, user, assessment.AttemptInput{
		ConceptID:       "atp",
		ConceptLabel:    "ATP",
		KnowledgeBaseID: "bio",
		Question:        "What is ATP?",
		Answer:          "Energy currency",
		RawScore:        90,
		Feedback:        "Correct",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Record.RepetitionCount)
	assert.Equal(t, 1, first.Record.IntervalDays)
	assert.Equal(t, testNow.Add(srs.Day), first.Record.NextReviewAt)
	assert.Equal(t, "Correct", first.Entry.Feedback)

	f.now = testNow.Add(srs.Day)
	second, err := svc.RecordAttempt(ctx, user, assessment.AttemptInput{
		ConceptID: "atp",
		Question:  "What is ATP?",
		Answer:    "Adenosine triphosphate",
		RawScore:  95,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Record.RepetitionCount)
	assert.Equal(t, 3, second.Record.IntervalDays)
	assert.Equal(t, "ATP", second.Record.ConceptLabel, "label carries over")
	assert.Equal(t, "bio", second.Record.KnowledgeBaseID, "knowledge base carries over")

	entries, err := svc.History(ctx, user)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.Entry.ID, entries[0].ID)
	assert.Equal(t, second.Entry.ID, entries[1].ID)

	stored, err := svc.Result(ctx, user, "atp")
	require.NoError(t, err)
	assert.Equal(t, 95, stored.Score)
	assert.Equal(t, domain.MasteryMastered, stored.Tier)
}

func TestRecordAttempt_Validation(t *testing.T) {
	svc := assessment.NewService(newFixture().deps(), discard())
	ctx := context.Background()

	_, err := svc.RecordAttempt(ctx, uuid.Nil, assessment.AttemptInput{ConceptID: "c", RawScore: 5})
	assert.ErrorIs(t, err, assessment.ErrInvalidAttempt)

	_, err = svc.RecordAttempt(ctx, uuid.New(), assessment.AttemptInput{ConceptID: "  ", RawScore: 5})
	assert.ErrorIs(t, err, assessment.ErrInvalidAttempt)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecordAttempt_Grading(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	t.Run("no grader configured", func(t *testing.T) {
		svc := assessment.NewService(newFixture().deps(), discard())
		_, err := svc.RecordAttempt(ctx, user, assessment.AttemptInput{ConceptID: "c", Answer: "a"})
		assert.ErrorIs(t, err, assessment.ErrGraderUnavailable)
	})

	t.Run("grader scores the answer", func(t *testing.T) {
		f := newFixture()
		grader := &mocks.MockGrader{}
		grader.On("Grade", mock.Anything, grading.GradeRequest{
			Context:  "Cells",
			Question: "What is ATP?",
			Answer:   "Energy",
		}).Return(&grading.GradeResult{RawScore: json.Number("7"), Feedback: "Mostly right"}, nil).Once()

		deps := f.deps()
		deps.Grader = grader
		svc := assessment.NewService(deps, discard())

		out, err := svc.RecordAttempt(ctx, user, assessment.AttemptInput{
			ConceptID: "atp",
			Context:   "Cells",
			Question:  "What is ATP?",
			Answer:    "Energy",
		})
		require.NoError(t, err)
		assert.Equal(t, 70, out.Record.Score)
		assert.Equal(t, "7", out.Entry.RawScore)
		assert.Equal(t, "Mostly right", out.Record.Feedback)
		grader.AssertExpectations(t)
	})

	t.Run("provided score skips the grader", func(t *testing.T) {
		f := newFixture()
		grader := &mocks.MockGrader{}
		deps := f.deps()
		deps.Grader = grader
		svc := assessment.NewService(deps, discard())

		_, err := svc.RecordAttempt(ctx, user, assessment.AttemptInput{ConceptID: "atp", RawScore: 4})
		require.NoError(t, err)
		grader.AssertNotCalled(t, "Grade", mock.Anything, mock.Anything)
	})

	t.Run("grading failure stores nothing", func(t *testing.T) {
		f := newFixture()
		grader := &mocks.MockGrader{}
		grader.On("Grade", mock.Anything, mock.Anything).Return(nil, grading.ErrContentBlocked)
		deps := f.deps()
		deps.Grader = grader
		svc := assessment.NewService(deps, discard())

		_, err := svc.RecordAttempt(ctx, user, assessment.AttemptInput{ConceptID: "atp", Answer: "x"})
		assert.ErrorIs(t, err, grading.ErrContentBlocked)

		_, err = svc.Result(ctx, user, "atp")
		assert.ErrorIs(t, err, assessment.ErrResultNotFound)
	})
}

func TestRecordAttempt_RecordWriteFailure(t *testing.T) {
	f := newFixture()
	writeErr := errors.New("disk full")
	deps := f.deps()
	deps.Results = &mocks.MockResultStore{
		PutFn: func(context.Context, uuid.UUID, *domain.ScheduleRecord) error { return writeErr },
	}
	svc := assessment.NewService(deps, discard())
	user := uuid.New()

	_, err := svc.RecordAttempt(context.Background(), user, assessment.AttemptInput{ConceptID: "c1", RawScore: 9})

	var rwe *assessment.RecordWriteError
	require.ErrorAs(t, err, &rwe)
	assert.ErrorIs(t, err, writeErr)
	assert.Equal(t, "c1", rwe.Record.ConceptID)
	assert.Equal(t, 90, rwe.Record.Score)

	entries, _ := f.history.ListAll(context.Background(), user)
	assert.Empty(t, entries, "history is not appended when the record write fails")
}

func TestRecordAttempt_HistoryFailureQueuesRetry(t *testing.T) {
	f := newFixture()
	deps := f.deps()
	deps.History = &mocks.MockHistoryLog{
		AppendFn: func(context.Context, uuid.UUID, *domain.AttemptLogEntry) error {
			return errors.New("history unavailable")
		},
	}
	svc := assessment.NewService(deps, discard())
	user := uuid.New()

	out, err := svc.RecordAttempt(context.Background(), user, assessment.AttemptInput{ConceptID: "c1", RawScore: 75})
	require.NoError(t, err)
	assert.True(t, out.HistoryPending)

	stored, err := f.results.Get(context.Background(), user, "c1")
	require.NoError(t, err)
	assert.Equal(t, 75, stored.Score, "the record is kept even when history fails")

	emitted := f.emitter.Emitted()
	require.Len(t, emitted, 1)
	assert.Equal(t, events.TypeHistoryAppend, emitted[0].Type)

	var payload struct {
		UserID uuid.UUID               `json:"user_id"`
		Entry  *domain.AttemptLogEntry `json:"entry"`
	}
	require.NoError(t, emitted[0].UnmarshalPayload(&payload))
	assert.Equal(t, user, payload.UserID)
	assert.Equal(t, out.Entry.ID, payload.Entry.ID)
}

func TestRecordAttempt_HistoryAndQueueFailure(t *testing.T) {
	f := newFixture()
	f.emitter.Err = events.ErrNoHandlers
	deps := f.deps()
	deps.History = &mocks.MockHistoryLog{
		AppendFn: func(context.Context, uuid.UUID, *domain.AttemptLogEntry) error {
			return errors.New("history unavailable")
		},
	}
	svc := assessment.NewService(deps, discard())

	out, err := svc.RecordAttempt(context.Background(), uuid.New(), assessment.AttemptInput{ConceptID: "c1", RawScore: 75})
	require.NoError(t, err)
	assert.True(t, out.HistoryPending)
}

func TestRecordAttempt_Transactional(t *testing.T) {
	t.Run("commits", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		f := newFixture()
		results := &mocks.MockResultStore{Fallback: f.results}
		deps := f.deps()
		deps.Results = results
		deps.DB = db
		svc := assessment.NewService(deps, discard())

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		out, err := svc.RecordAttempt(context.Background(), uuid.New(), assessment.AttemptInput{ConceptID: "c1", RawScore: 6})
		require.NoError(t, err)
		assert.Equal(t, 60, out.Record.Score)
		assert.Equal(t, 1, results.TxCalls)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("commit failure reports the computed record", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		f := newFixture()
		deps := f.deps()
		deps.Results = &mocks.MockResultStore{}
		deps.DB = db
		svc := assessment.NewService(deps, discard())

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		_, err = svc.RecordAttempt(context.Background(), uuid.New(), assessment.AttemptInput{ConceptID: "c1", RawScore: 6})

		var rwe *assessment.RecordWriteError
		require.ErrorAs(t, err, &rwe)
		assert.ErrorIs(t, err, store.ErrTransactionFailed)
		assert.Equal(t, 60, rwe.Record.Score)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("put failure rolls back", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		f := newFixture()
		deps := f.deps()
		deps.Results = &mocks.MockResultStore{
			PutFn: func(context.Context, uuid.UUID, *domain.ScheduleRecord) error { return errors.New("constraint") },
		}
		deps.DB = db
		svc := assessment.NewService(deps, discard())

		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		_, err = svc.RecordAttempt(context.Background(), uuid.New(), assessment.AttemptInput{ConceptID: "c1", RawScore: 6})
		var rwe *assessment.RecordWriteError
		assert.ErrorAs(t, err, &rwe)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestRecordAttempt_ConcurrentSameConcept(t *testing.T) {
	f := newFixture()
	svc := assessment.NewService(f.deps(), discard())
	user := uuid.New()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordAttempt(context.Background(), user, assessment.AttemptInput{ConceptID: "c1", RawScore: 90})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	record, err := f.results.Get(context.Background(), user, "c1")
	require.NoError(t, err)
	assert.Equal(t, 10, record.RepetitionCount, "every attempt builds on the previous one")

	entries, _ := f.history.ListAll(context.Background(), user)
	assert.Len(t, entries, 10)
}

func TestResultsAndDueItems(t *testing.T) {
	f := newFixture()
	svc := assessment.NewService(f.deps(), discard())
	ctx := context.Background()
	user := uuid.New()

	record := func(id, kb string, score int, next time.Time) {
		require.NoError(t, f.results.Put(ctx, user, &domain.ScheduleRecord{
			ConceptID: id, KnowledgeBaseID: kb, Score: score, NextReviewAt: next, UpdatedAt: testNow,
		}))
	}
	record("a", "kb1", 70, testNow.Add(-2*time.Hour))
	record("b", "kb1", 30, testNow.Add(-time.Hour))
	record("c", "kb1", 90, testNow.Add(48*time.Hour))
	record("d", "kb2", 10, testNow)

	all, err := svc.Results(ctx, user, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	kb1, err := svc.Results(ctx, user, "kb1")
	require.NoError(t, err)
	assert.Len(t, kb1, 3)

	due, err := svc.DueItems(ctx, user, "kb1", srs.OrderWeakestFirst)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "b", due[0].ConceptID)
	assert.Equal(t, domain.MasteryLearning, due[0].Tier)
	assert.Equal(t, "a", due[1].ConceptID)

	due, err = svc.DueItems(ctx, user, "", srs.OrderOldestFirst)
	require.NoError(t, err)
	require.Len(t, due, 3, "due at exactly now counts")
	assert.Equal(t, []string{"a", "b", "d"}, []string{due[0].ConceptID, due[1].ConceptID, due[2].ConceptID})
}

func TestPostpone(t *testing.T) {
	f := newFixture()
	svc := assessment.NewService(f.deps(), discard())
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.Postpone(ctx, user, "missing", 2)
	assert.ErrorIs(t, err, assessment.ErrResultNotFound)

	out, err := svc.RecordAttempt(ctx, user, assessment.AttemptInput{ConceptID: "c1", RawScore: 8})
	require.NoError(t, err)

	postponed, err := svc.Postpone(ctx, user, "c1", 2)
	require.NoError(t, err)
	assert.Equal(t, out.Record.NextReviewAt.Add(2*srs.Day), postponed.NextReviewAt)
	assert.Equal(t, out.Record.IntervalDays, postponed.IntervalDays)

	_, err = svc.Postpone(ctx, user, "c1", 0)
	assert.ErrorIs(t, err, srs.ErrInvalidDays)
}

func TestLearningPath(t *testing.T) {
	f := newFixture()
	svc := assessment.NewService(f.deps(), discard())
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.LearningPath(ctx, user, "bio")
	assert.ErrorIs(t, err, assessment.ErrCurriculumNotFound)

	require.NoError(t, svc.SaveCurriculum(ctx, user, &domain.Curriculum{
		KnowledgeBaseID: "bio",
		Title:           "Biology",
		Modules: []domain.Module{
			{ID: "m1", Title: "Cells", ConceptIDs: []string{"cell", "atp"}},
			{ID: "m2", Title: "Genetics", ConceptIDs: []string{"dna"}},
		},
	}))

	path, err := svc.LearningPath(ctx, user, "bio")
	require.NoError(t, err)
	assert.Equal(t, 0, path.ActiveIndex)
	assert.Equal(t, domain.ModuleActive, path.Modules[0].Status)
	assert.Equal(t, domain.ModuleLocked, path.Modules[1].Status)
	assert.False(t, path.Complete)

	for _, id := range []string{"cell", "atp"} {
		_, err := svc.RecordAttempt(ctx, user, assessment.AttemptInput{ConceptID: id, KnowledgeBaseID: "other", RawScore: 60})
		require.NoError(t, err)
	}

	path, err = svc.LearningPath(ctx, user, "bio")
	require.NoError(t, err)
	assert.Equal(t, 1, path.ActiveIndex)
	assert.Equal(t, domain.ModuleCompleted, path.Modules[0].Status)
	assert.Equal(t, domain.ModuleActive, path.Modules[1].Status)
	assert.Equal(t, 67, path.Progress)

	_, err = svc.RecordAttempt(ctx, user, assessment.AttemptInput{ConceptID: "atp", RawScore: 59})
	require.NoError(t, err)

	path, err = svc.LearningPath(ctx, user, "bio")
	require.NoError(t, err)
	assert.Equal(t, 0, path.ActiveIndex, "a dropped score re-locks later modules")
	assert.Equal(t, domain.ModuleLocked, path.Modules[1].Status)
}

func TestSaveCurriculum_Validation(t *testing.T) {
	svc := assessment.NewService(newFixture().deps(), discard())
	ctx := context.Background()

	assert.ErrorIs(t, svc.SaveCurriculum(ctx, uuid.New(), nil), domain.ErrValidation)
	err := svc.SaveCurriculum(ctx, uuid.New(), &domain.Curriculum{
		KnowledgeBaseID: "kb",
		Modules:         []domain.Module{{ID: "m"}, {ID: "m"}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAnalytics(t *testing.T) {
	f := newFixture()
	svc := assessment.NewService(f.deps(), discard())
	ctx := context.Background()
	user := uuid.New()

	attempts := []struct {
		concept, kb string
		score       int
	}{
		{"a", "kb1", 40},
		{"a", "kb1", 95},
		{"b", "kb1", 30},
		{"c", "kb2", 70},
	}
	for _, a := range attempts {
		_, err := svc.RecordAttempt(ctx, user, assessment.AttemptInput{ConceptID: a.concept, KnowledgeBaseID: a.kb, RawScore: a.score})
		require.NoError(t, err)
	}

	all, err := svc.Analytics(ctx, user, "")
	require.NoError(t, err)
	assert.Equal(t, 3, all.ConceptCount)
	assert.Equal(t, 65, all.AverageScore)
	assert.Equal(t, 4, all.TotalAttempts)
	assert.Equal(t, 50, all.RetentionRate)
	assert.Equal(t, 8, all.StudyMinutes)

	kb1, err := svc.Analytics(ctx, user, "kb1")
	require.NoError(t, err)
	assert.Equal(t, 2, kb1.ConceptCount)
	assert.Equal(t, 3, kb1.TotalAttempts)
	require.Len(t, kb1.WeakConcepts, 1)
	assert.Equal(t, "b", kb1.WeakConcepts[0].ConceptID)
	require.Len(t, kb1.StrongConcepts, 1)
	assert.Equal(t, "a", kb1.StrongConcepts[0].ConceptID)
}
