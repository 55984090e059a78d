package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
)

// Common errors
var (
	ErrInvalidScheduleRecord = errors.New("previous schedule record is invalid")
	ErrConceptMismatch       = errors.New("previous record belongs to a different concept")
	ErrNilRecord             = errors.New("schedule record cannot be nil")
	ErrInvalidDays           = errors.New("postpone days must be at least 1")
)

// Service defines the interface for scheduling operations
type Service interface {
	// Next computes the schedule record that follows an attempt on conceptID.
	// previous is nil when the concept has never been attempted.
	Next(
		conceptID string,
		previous *domain.ScheduleRecord,
		score int,
		now time.Time,
	) (*domain.ScheduleRecord, error)

	// Postpone pushes the next review of a record forward by days.
	Postpone(record *domain.ScheduleRecord, days int, now time.Time) (*domain.ScheduleRecord, error)
}

type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduling service with default parameters
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scheduling service with custom parameters.
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, ErrInvalidParams
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{params: params}, nil
}

// Next implements Service.
func (s *defaultService) Next(
	conceptID string,
	previous *domain.ScheduleRecord,
	score int,
	now time.Time,
) (*domain.ScheduleRecord, error) {
	if err := domain.ValidateConceptID(conceptID); err != nil {
		return nil, err
	}

	if previous != nil {
		if previous.IntervalDays < 0 || previous.RepetitionCount < 0 {
			return nil, ErrInvalidScheduleRecord
		}
		if previous.ConceptID != "" && previous.ConceptID != conceptID {
			return nil, ErrConceptMismatch
		}
	}

	next := advance(previous, score, now, s.params)
	next.ConceptID = conceptID
	return next, nil
}

// Postpone implements Service.
func (s *defaultService) Postpone(
	record *domain.ScheduleRecord,
	days int,
	now time.Time,
) (*domain.ScheduleRecord, error) {
	if record == nil {
		return nil, ErrNilRecord
	}
	if days < 1 {
		return nil, ErrInvalidDays
	}

	postponed := record.Clone()
	postponed.NextReviewAt = record.NextReviewAt.Add(time.Duration(days) * Day)
	postponed.UpdatedAt = now
	return postponed, nil
}
