package srs

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/phrazzld/recall-api/internal/domain"
)

// ReviewOrder selects how a due queue is presented.
type ReviewOrder string

const (
	// OrderStored keeps the order the records were given in.
	OrderStored ReviewOrder = "stored"
	// OrderWeakestFirst sorts by score ascending, then due date ascending.
	OrderWeakestFirst ReviewOrder = "weakest"
	// OrderOldestFirst sorts by due date ascending, then score ascending.
	OrderOldestFirst ReviewOrder = "oldest"
)

// DueItems returns the records whose next review is at or before now, in
// the order they were given.
func DueItems(records []*domain.ScheduleRecord, now time.Time) []*domain.ScheduleRecord {
	return lo.Filter(records, func(r *domain.ScheduleRecord, _ int) bool {
		return r != nil && r.IsDue(now)
	})
}

// SortForReview returns a sorted copy of records. Unknown orders keep the
// input order.
func SortForReview(records []*domain.ScheduleRecord, order ReviewOrder) []*domain.ScheduleRecord {
	sorted := slices.Clone(records)

	switch order {
	case OrderWeakestFirst:
		slices.SortStableFunc(sorted, func(a, b *domain.ScheduleRecord) int {
			return cmp.Or(cmp.Compare(a.Score, b.Score), a.NextReviewAt.Compare(b.NextReviewAt))
		})
	case OrderOldestFirst:
		slices.SortStableFunc(sorted, func(a, b *domain.ScheduleRecord) int {
			return cmp.Or(a.NextReviewAt.Compare(b.NextReviewAt), cmp.Compare(a.Score, b.Score))
		})
	}

	return sorted
}

// ParseReviewOrder maps a query value to a ReviewOrder, defaulting to
// OrderStored.
func ParseReviewOrder(s string) ReviewOrder {
	switch ReviewOrder(s) {
	case OrderWeakestFirst, OrderOldestFirst:
		return ReviewOrder(s)
	default:
		return OrderStored
	}
}
