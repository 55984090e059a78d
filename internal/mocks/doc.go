// Package mocks provides shared test doubles for service and API tests.
//
// Most mocks expose a function field per interface method and fall back to
// simple defaults when the field is nil; MockGrader uses testify/mock for
// call expectations.
//
//	results := &mocks.MockResultStore{
//	    PutFn: func(ctx context.Context, userID uuid.UUID, r *domain.ScheduleRecord) error {
//	        return errors.New("disk full")
//	    },
//	}
package mocks
