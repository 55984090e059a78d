package grading

import (
	"context"
	"strings"
)

// Grader defines the interface for scoring a learner's answer with an external
// language model. Implementations must be safe for concurrent use.
type Grader interface {
	// Grade scores req.Answer against req.Question and req.Context. The raw
	// score is returned exactly as the model produced it.
	Grade(ctx context.Context, req GradeRequest) (*GradeResult, error)
}

// GradeRequest carries the material shown to the model.
type GradeRequest struct {
	Context  string
	Question string
	Answer   string
}

// Validate checks that the request has something to grade.
func (r GradeRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return ErrEmptyQuestion
	}
	if strings.TrimSpace(r.Answer) == "" {
		return ErrEmptyAnswer
	}
	return nil
}

// GradeResult is the model verdict. RawScore is a json.Number or a string,
// whichever the model emitted.
type GradeResult struct {
	RawScore any
	Feedback string
}

// GraderFunc adapts a plain function to the Grader interface.
type GraderFunc func(ctx context.Context, req GradeRequest) (*GradeResult, error)

// Grade calls f.
func (f GraderFunc) Grade(ctx context.Context, req GradeRequest) (*GradeResult, error) {
	return f(ctx, req)
}
