package domain

import (
	"strings"
	"time"
)

// MaxConceptIDLength bounds concept identifiers so they fit the storage keys
// used by every backend.
const MaxConceptIDLength = 255

// ScheduleRecord is the latest scheduling state of one concept for one user.
// A user's result store holds at most one record per ConceptID.
type ScheduleRecord struct {
	ConceptID       string    `json:"conceptId"`
	ConceptLabel    string    `json:"conceptLabel,omitempty"`
	KnowledgeBaseID string    `json:"kbId,omitempty"`
	Score           int       `json:"score"`
	Feedback        string    `json:"feedback,omitempty"`
	IntervalDays    int       `json:"intervalDays"`
	RepetitionCount int       `json:"repetitionCount"`
	NextReviewAt    time.Time `json:"nextReviewAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Validate checks the invariants every stored record must satisfy.
func (r *ScheduleRecord) Validate() error {
	if err := ValidateConceptID(r.ConceptID); err != nil {
		return err
	}
	if r.IntervalDays < 0 {
		return NewValidationError("intervalDays", "cannot be negative", nil)
	}
	if r.RepetitionCount < 0 {
		return NewValidationError("repetitionCount", "cannot be negative", nil)
	}
	if r.NextReviewAt.IsZero() {
		return NewValidationError("nextReviewAt", "is required", nil)
	}
	return nil
}

// IsDue reports whether the concept should be reviewed at now.
func (r *ScheduleRecord) IsDue(now time.Time) bool {
	return !r.NextReviewAt.After(now)
}

// Tier returns the mastery tier of the record's latest score.
func (r *ScheduleRecord) Tier() MasteryTier {
	return Classify(r.Score)
}

// Clone returns a copy of the record.
func (r *ScheduleRecord) Clone() *ScheduleRecord {
	c := *r
	return &c
}

// ValidateConceptID checks that id is a usable opaque concept identifier.
func ValidateConceptID(id string) error {
	if strings.TrimSpace(id) == "" {
		return NewValidationError("conceptId", "is required", ErrInvalidID)
	}
	if len(id) > MaxConceptIDLength {
		return NewValidationError("conceptId", "is too long", ErrInvalidID)
	}
	return nil
}
