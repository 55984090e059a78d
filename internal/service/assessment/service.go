package assessment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/domain/curriculum"
	"github.com/phrazzld/recall-api/internal/domain/srs"
)

// Service records attempts and reports on a learner's progress.
type Service interface {
	// RecordAttempt grades (when no score is given), normalizes and stores an
	// attempt.
	//
	// Returns:
	//   - (*AttemptOutcome, nil): the stored record and history entry. When the
	//     history append failed, HistoryPending is true and the entry has been
	//     handed to the retry queue.
	//   - (nil, *RecordWriteError): the schedule record could not be stored;
	//     the error carries the computed record.
	//   - (nil, ErrInvalidAttempt / ErrGraderUnavailable / grading errors)
	RecordAttempt(ctx context.Context, userID uuid.UUID, input AttemptInput) (*AttemptOutcome, error)

	// Result returns the latest record for one concept, or ErrResultNotFound.
	Result(ctx context.Context, userID uuid.UUID, conceptID string) (*ResultView, error)

	// Results lists the latest records, optionally limited to one knowledge base.
	Results(ctx context.Context, userID uuid.UUID, kbID string) ([]*ResultView, error)

	// DueItems lists records whose review is due now, in the requested order.
	DueItems(ctx context.Context, userID uuid.UUID, kbID string, order srs.ReviewOrder) ([]*ResultView, error)

	// Postpone moves the next review of a concept forward by days.
	Postpone(ctx context.Context, userID uuid.UUID, conceptID string, days int) (*ResultView, error)

	// History returns the attempt log in chronological order.
	History(ctx context.Context, userID uuid.UUID) ([]*domain.AttemptLogEntry, error)

	// SaveCurriculum replaces the curriculum of a knowledge base.
	SaveCurriculum(ctx context.Context, userID uuid.UUID, c *domain.Curriculum) error

	// LearningPath derives module statuses for a saved curriculum.
	LearningPath(ctx context.Context, userID uuid.UUID, kbID string) (*LearningPath, error)

	// Analytics summarizes results and history, optionally for one knowledge base.
	Analytics(ctx context.Context, userID uuid.UUID, kbID string) (*Analytics, error)
}

// AttemptInput is one answer to record. When RawScore is nil the configured
// grader scores Answer.
type AttemptInput struct {
	ConceptID       string
	ConceptLabel    string
	KnowledgeBaseID string
	Context         string
	Question        string
	Answer          string
	RawScore        any
	Feedback        string
}

// AttemptOutcome is what RecordAttempt stored.
type AttemptOutcome struct {
	Record         *domain.ScheduleRecord
	Entry          *domain.AttemptLogEntry
	Tier           domain.MasteryTier
	HistoryPending bool
}

// ResultView is a record with its derived mastery tier.
type ResultView struct {
	*domain.ScheduleRecord
	Tier domain.MasteryTier `json:"tier"`
}

// LearningPath is a curriculum with derived statuses.
type LearningPath struct {
	KnowledgeBaseID string                      `json:"kbId"`
	Title           string                      `json:"title,omitempty"`
	Modules         []curriculum.ModuleProgress `json:"modules"`
	ActiveIndex     int                         `json:"activeIndex"`
	Complete        bool                        `json:"complete"`
	Progress        int                         `json:"progress"`
}

// ConceptScore names a concept with its latest score.
type ConceptScore struct {
	ConceptID    string `json:"conceptId"`
	ConceptLabel string `json:"conceptLabel,omitempty"`
	Score        int    `json:"score"`
}

// Analytics summarizes a learner's results and history.
type Analytics struct {
	AverageScore   int                        `json:"averageScore"`
	ConceptCount   int                        `json:"conceptCount"`
	WeakConcepts   []ConceptScore             `json:"weakConcepts"`
	StrongConcepts []ConceptScore             `json:"strongConcepts"`
	TierCounts     map[domain.MasteryTier]int `json:"tierCounts"`
	TotalAttempts  int                        `json:"totalAttempts"`
	RetentionRate  int                        `json:"retentionRate"`
	StudyMinutes   int                        `json:"studyMinutes"`
	AttemptsPerDay float64                    `json:"attemptsPerDay"`
	DueCount       int                        `json:"dueCount"`
	GeneratedAt    time.Time                  `json:"generatedAt"`
}
