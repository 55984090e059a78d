package assessment

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/domain/srs"
)

// StudyMinutesPerAttempt is the time credited for each recorded attempt.
const StudyMinutesPerAttempt = 2

// computeAnalytics derives the analytics summary. Scores come from the latest
// records; retention and study time come from the full history.
func computeAnalytics(records []*domain.ScheduleRecord, entries []*domain.AttemptLogEntry, now time.Time) *Analytics {
	a := &Analytics{
		ConceptCount:   len(records),
		WeakConcepts:   []ConceptScore{},
		StrongConcepts: []ConceptScore{},
		TierCounts: map[domain.MasteryTier]int{
			domain.MasteryLearning: 0,
			domain.MasteryPassing:  0,
			domain.MasteryMastered: 0,
		},
		TotalAttempts: len(entries),
		StudyMinutes:  len(entries) * StudyMinutesPerAttempt,
		DueCount:      len(srs.DueItems(records, now)),
		GeneratedAt:   now,
	}

	if len(records) > 0 {
		total := lo.SumBy(records, func(r *domain.ScheduleRecord) int { return r.Score })
		a.AverageScore = int(math.Round(float64(total) / float64(len(records))))
	}

	for _, r := range records {
		tier := r.Tier()
		a.TierCounts[tier]++
		cs := ConceptScore{ConceptID: r.ConceptID, ConceptLabel: r.ConceptLabel, Score: r.Score}
		switch {
		case r.Score < domain.PassingThreshold:
			a.WeakConcepts = append(a.WeakConcepts, cs)
		case tier == domain.MasteryMastered:
			a.StrongConcepts = append(a.StrongConcepts, cs)
		}
	}
	byScore := func(x, y ConceptScore) int {
		return cmp.Or(cmp.Compare(x.Score, y.Score), cmp.Compare(x.ConceptID, y.ConceptID))
	}
	slices.SortFunc(a.WeakConcepts, byScore)
	slices.SortFunc(a.StrongConcepts, func(x, y ConceptScore) int { return byScore(y, x) })

	if len(entries) > 0 {
		passed := lo.CountBy(entries, func(e *domain.AttemptLogEntry) bool { return e.IsPassed() })
		a.RetentionRate = int(math.Round(100 * float64(passed) / float64(len(entries))))

		days := lo.Uniq(lo.Map(entries, func(e *domain.AttemptLogEntry, _ int) string {
			return e.CreatedAt.UTC().Format(time.DateOnly)
		}))
		a.AttemptsPerDay = math.Round(10*float64(len(entries))/float64(len(days))) / 10
	}

	return a
}
