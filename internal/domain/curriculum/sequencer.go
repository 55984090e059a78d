// Package curriculum derives module gating from per-concept mastery.
//
// Gating is a forward scan recomputed on every read: a module is unlocked
// only when every earlier module is fully passed. No unlocked flag is ever
// stored, so a concept whose score later drops re-locks everything after it.
package curriculum

import (
	"math"

	"github.com/phrazzld/recall-api/internal/domain"
)

// PassedFunc reports whether a concept currently counts as passed.
type PassedFunc func(conceptID string) bool

// ModuleProgress is the derived state of one module.
type ModuleProgress struct {
	Module domain.Module       `json:"module"`
	Status domain.ModuleStatus `json:"status"`
	Passed int                 `json:"passed"`
	Total  int                 `json:"total"`
}

// ActiveModuleIndex returns the index of the first module that is not fully
// passed. It returns len(modules) when the curriculum is complete and 0 for
// an empty curriculum.
func ActiveModuleIndex(modules []domain.Module, isPassed PassedFunc) int {
	i := 0
	for i < len(modules) && modulePassed(modules[i], isPassed) {
		i++
	}
	return i
}

// Statuses returns the gating status of every module, in order.
func Statuses(modules []domain.Module, isPassed PassedFunc) []domain.ModuleStatus {
	active := ActiveModuleIndex(modules, isPassed)
	statuses := make([]domain.ModuleStatus, len(modules))
	for i := range modules {
		statuses[i] = statusAt(i, active)
	}
	return statuses
}

// Progress returns per-module passed counts with statuses, plus the overall
// percentage of passed concepts rounded to the nearest integer.
func Progress(modules []domain.Module, isPassed PassedFunc) ([]ModuleProgress, int) {
	active := ActiveModuleIndex(modules, isPassed)
	out := make([]ModuleProgress, len(modules))

	passed, total := 0, 0
	for i, m := range modules {
		p := 0
		for _, id := range m.ConceptIDs {
			if isPassed(id) {
				p++
			}
		}
		out[i] = ModuleProgress{
			Module: m,
			Status: statusAt(i, active),
			Passed: p,
			Total:  len(m.ConceptIDs),
		}
		passed += p
		total += len(m.ConceptIDs)
	}

	if total == 0 {
		return out, 0
	}
	return out, int(math.Round(100 * float64(passed) / float64(total)))
}

// PassedFromRecords builds a PassedFunc over a user's latest records.
// Concepts without a record are not passed.
func PassedFromRecords(records []*domain.ScheduleRecord) PassedFunc {
	byConcept := make(map[string]*domain.ScheduleRecord, len(records))
	for _, r := range records {
		if r != nil {
			byConcept[r.ConceptID] = r
		}
	}
	return func(conceptID string) bool {
		return domain.ClassifyRecord(byConcept[conceptID]).IsPassed()
	}
}

// A module with no concepts is vacuously passed.
func modulePassed(m domain.Module, isPassed PassedFunc) bool {
	for _, id := range m.ConceptIDs {
		if !isPassed(id) {
			return false
		}
	}
	return true
}

func statusAt(i, active int) domain.ModuleStatus {
	switch {
	case i < active:
		return domain.ModuleCompleted
	case i == active:
		return domain.ModuleActive
	default:
		return domain.ModuleLocked
	}
}
