package srs

import (
	"math"
	"testing"
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)

func record(rep, interval int) *domain.ScheduleRecord {
	return &domain.ScheduleRecord{
		ConceptID:       "x",
		Score:           70,
		RepetitionCount: rep,
		IntervalDays:    interval,
		NextReviewAt:    t0,
		UpdatedAt:       t0,
	}
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		previous     *domain.ScheduleRecord
		score        int
		wantRep      int
		wantInterval int
	}{
		{"failure on new concept", nil, 40, 0, 0},
		{"failure resets long streak", record(6, 120), 59, 0, 0},
		{"first success on new concept", nil, 60, 1, 1},
		{"first success after reset", record(0, 0), 100, 1, 1},
		{"second success is fixed graduation", record(1, 1), 95, 2, 3},
		{"second success ignores multiplier", record(1, 1), 60, 2, 3},
		{"mastered score multiplies by 2.5", record(2, 3), 85, 3, 8},
		{"passing score multiplies by 1.5", record(2, 3), 84, 3, 5},
		{"long interval mastered", record(4, 20), 90, 5, 50},
		{"zero interval floors to one day", record(3, 0), 90, 4, 1},
		{"negative score is a failure", record(3, 10), -10, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Advance(tc.previous, tc.score, t0)

			assert.Equal(t, tc.wantRep, got.RepetitionCount, "repetition")
			assert.Equal(t, tc.wantInterval, got.IntervalDays, "interval")
			assert.Equal(t, t0.Add(time.Duration(tc.wantInterval)*24*time.Hour), got.NextReviewAt)
			assert.Equal(t, tc.score, got.Score)
			assert.Equal(t, t0, got.UpdatedAt)
		})
	}
}

func TestAdvanceDoesNotMutatePrevious(t *testing.T) {
	t.Parallel()

	prev := record(2, 3)
	prev.ConceptLabel = "Goroutines"
	prev.KnowledgeBaseID = "kb-go"
	snapshot := *prev

	got := Advance(prev, 90, t0.Add(72*time.Hour))

	assert.Equal(t, snapshot, *prev)
	assert.NotSame(t, prev, got)
	assert.Equal(t, "x", got.ConceptID)
	assert.Equal(t, "Goroutines", got.ConceptLabel)
	assert.Equal(t, "kb-go", got.KnowledgeBaseID)
}

func TestAdvanceFailureProperty(t *testing.T) {
	t.Parallel()

	prevs := []*domain.ScheduleRecord{nil, record(0, 0), record(1, 1), record(2, 3), record(9, 400)}
	for _, prev := range prevs {
		for score := -20; score < 60; score += 7 {
			got := Advance(prev, score, t0)
			require.Equal(t, 0, got.RepetitionCount)
			require.Equal(t, 0, got.IntervalDays)
			require.Equal(t, t0, got.NextReviewAt, "failed concept is due immediately")
		}
	}
}

func TestAdvanceMultiplierProperty(t *testing.T) {
	t.Parallel()

	for rep := 2; rep <= 6; rep++ {
		for interval := 1; interval <= 40; interval += 3 {
			prev := record(rep, interval)
			for score := 60; score <= 100; score += 5 {
				factor := 1.5
				if score >= 85 {
					factor = 2.5
				}
				want := int(math.Ceil(float64(interval) * factor))

				got := Advance(prev, score, t0)
				require.Equal(t, want, got.IntervalDays, "rep=%d interval=%d score=%d", rep, interval, score)
				require.Equal(t, rep+1, got.RepetitionCount)
			}
		}
	}
}

// TestAdvanceScenario walks one concept through two successes and a failure.
func TestAdvanceScenario(t *testing.T) {
	t.Parallel()

	score := Normalize(9)
	require.Equal(t, 90, score)

	first := Advance(nil, score, t0)
	assert.Equal(t, 1, first.RepetitionCount)
	assert.Equal(t, 1, first.IntervalDays)
	assert.Equal(t, t0.Add(24*time.Hour), first.NextReviewAt)

	t1 := t0.Add(24 * time.Hour)
	second := Advance(first, 90, t1)
	assert.Equal(t, 2, second.RepetitionCount)
	assert.Equal(t, 3, second.IntervalDays)
	assert.Equal(t, t1.Add(72*time.Hour), second.NextReviewAt)

	t2 := t1.Add(72 * time.Hour)
	third := Advance(second, 50, t2)
	assert.Equal(t, 0, third.RepetitionCount)
	assert.Equal(t, 0, third.IntervalDays)
	assert.Equal(t, t2, third.NextReviewAt)
}
