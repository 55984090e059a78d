package domain

// MasteryTier is the coarse classification of a concept derived from its
// latest normalized score. It is always recomputed and never stored.
type MasteryTier string

const (
	MasteryLearning MasteryTier = "learning"
	MasteryPassing  MasteryTier = "passing"
	MasteryMastered MasteryTier = "mastered"
)

// Score thresholds. Both are inclusive on the upper tier.
const (
	MasteredThreshold = 85
	PassingThreshold  = 60
)

// Classify maps a normalized score to its mastery tier.
func Classify(score int) MasteryTier {
	switch {
	case score >= MasteredThreshold:
		return MasteryMastered
	case score >= PassingThreshold:
		return MasteryPassing
	default:
		return MasteryLearning
	}
}

// ClassifyRecord classifies an optional record. A concept with no record
// has never been attempted and is still being learned.
func ClassifyRecord(r *ScheduleRecord) MasteryTier {
	if r == nil {
		return MasteryLearning
	}
	return Classify(r.Score)
}

// IsPassed reports whether the tier counts toward unlocking the next module.
func (t MasteryTier) IsPassed() bool {
	return t == MasteryPassing || t == MasteryMastered
}
