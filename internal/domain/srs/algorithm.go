package srs

import (
	"math"
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
)

// Day is the length of one scheduling interval unit.
const Day = 24 * time.Hour

// Advance computes the next scheduling state of a concept from its previous
// record (nil for a concept never attempted) and a normalized score.
//
// Transitions:
//   - score below the passing threshold resets repetition and interval to 0
//     and makes the concept due immediately;
//   - the first success after New or a reset schedules 1 day ahead;
//   - the second consecutive success graduates to a fixed 3 day interval;
//   - later successes multiply the previous interval by 2.5 for mastered
//     scores and 1.5 otherwise, rounding up, never below 1 day.
//
// The returned record is a new value carrying the previous record's concept
// identity and labels; previous is never modified.
func Advance(previous *domain.ScheduleRecord, score int, now time.Time) *domain.ScheduleRecord {
	return advance(previous, score, now, NewDefaultParams())
}

func advance(
	previous *domain.ScheduleRecord,
	score int,
	now time.Time,
	params *Params,
) *domain.ScheduleRecord {
	next := &domain.ScheduleRecord{}
	if previous != nil {
		next.ConceptID = previous.ConceptID
		next.ConceptLabel = previous.ConceptLabel
		next.KnowledgeBaseID = previous.KnowledgeBaseID
	}
	next.Score = score
	next.UpdatedAt = now

	next.RepetitionCount, next.IntervalDays = nextState(previous, score, params)
	next.NextReviewAt = now.Add(time.Duration(next.IntervalDays) * Day)

	return next
}

// nextState returns the repetition count and interval for an attempt.
func nextState(previous *domain.ScheduleRecord, score int, params *Params) (int, int) {
	if score < params.PassingScore {
		return 0, 0
	}

	if previous == nil || previous.RepetitionCount == 0 {
		return 1, params.FirstInterval
	}

	if previous.RepetitionCount == 1 {
		return 2, params.GraduationInterval
	}

	multiplier := params.StandardMultiplier
	if score >= params.MasteredScore {
		multiplier = params.EasyMultiplier
	}

	interval := int(math.Ceil(float64(previous.IntervalDays) * multiplier))
	if interval < params.MinInterval {
		interval = params.MinInterval
	}

	return previous.RepetitionCount + 1, interval
}
