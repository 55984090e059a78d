package mocks

import (
	"context"

	"github.com/phrazzld/recall-api/internal/grading"
	"github.com/stretchr/testify/mock"
)

// MockGrader is a testify mock of grading.Grader.
type MockGrader struct {
	mock.Mock
}

var _ grading.Grader = (*MockGrader)(nil)

// Grade implements grading.Grader.
func (m *MockGrader) Grade(ctx context.Context, req grading.GradeRequest) (*grading.GradeResult, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*grading.GradeResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
