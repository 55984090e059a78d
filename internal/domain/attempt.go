package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttemptLogEntry is the immutable record of one graded attempt. History
// logs only ever append entries; they are never updated or removed.
type AttemptLogEntry struct {
	ID              uuid.UUID `json:"id"`
	ConceptID       string    `json:"conceptId"`
	ConceptLabel    string    `json:"conceptLabel,omitempty"`
	KnowledgeBaseID string    `json:"kbId,omitempty"`
	Question        string    `json:"question"`
	Answer          string    `json:"userAnswer"`
	RawScore        string    `json:"rawScore"`
	Score           int       `json:"score"`
	Feedback        string    `json:"feedback"`
	CreatedAt       time.Time `json:"timestamp"`
}

// NewAttemptLogEntry builds an entry with a fresh ID for a record computed
// from the same attempt.
func NewAttemptLogEntry(
	record *ScheduleRecord,
	question, answer, rawScore string,
	now time.Time,
) *AttemptLogEntry {
	return &AttemptLogEntry{
		ID:              uuid.New(),
		ConceptID:       record.ConceptID,
		ConceptLabel:    record.ConceptLabel,
		KnowledgeBaseID: record.KnowledgeBaseID,
		Question:        question,
		Answer:          answer,
		RawScore:        rawScore,
		Score:           record.Score,
		Feedback:        record.Feedback,
		CreatedAt:       now,
	}
}

// Validate checks that the entry can be appended to a history log.
func (e *AttemptLogEntry) Validate() error {
	if e.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if err := ValidateConceptID(e.ConceptID); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		return NewValidationError("timestamp", "is required", nil)
	}
	return nil
}

// IsPassed reports whether the attempt scored at or above the passing
// threshold.
func (e *AttemptLogEntry) IsPassed() bool {
	return Classify(e.Score).IsPassed()
}
