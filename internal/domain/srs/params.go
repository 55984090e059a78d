package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/recall-api/internal/domain"
)

// ErrInvalidParams is returned when a Params value cannot drive the scheduler.
var ErrInvalidParams = errors.New("invalid srs params")

// Params defines the scheduling constants. The defaults reproduce the
// scheduler exactly; custom values exist for experiments and tests.
type Params struct {
	// Scores below PassingScore reset the schedule.
	PassingScore int
	// Scores at or above MasteredScore use EasyMultiplier.
	MasteredScore int

	// FirstInterval is used for the first success after New or a reset.
	FirstInterval int
	// GraduationInterval is the fixed interval of the second consecutive success.
	GraduationInterval int

	EasyMultiplier     float64
	StandardMultiplier float64

	// MinInterval floors every success interval.
	MinInterval int
}

// NewDefaultParams returns the standard scheduling constants.
func NewDefaultParams() *Params {
	return &Params{
		PassingScore:       domain.PassingThreshold,
		MasteredScore:      domain.MasteredThreshold,
		FirstInterval:      1,
		GraduationInterval: 3,
		EasyMultiplier:     2.5,
		StandardMultiplier: 1.5,
		MinInterval:        1,
	}
}

// Validate checks that the params describe a usable schedule.
func (p *Params) Validate() error {
	switch {
	case p.PassingScore <= 0 || p.PassingScore > 100:
		return fmt.Errorf("%w: passing score %d out of range", ErrInvalidParams, p.PassingScore)
	case p.MasteredScore < p.PassingScore || p.MasteredScore > 100:
		return fmt.Errorf("%w: mastered score %d out of range", ErrInvalidParams, p.MasteredScore)
	case p.MinInterval < 1:
		return fmt.Errorf("%w: min interval must be at least 1", ErrInvalidParams)
	case p.FirstInterval < p.MinInterval || p.GraduationInterval < p.MinInterval:
		return fmt.Errorf("%w: first and graduation intervals must be at least min interval", ErrInvalidParams)
	case p.EasyMultiplier < 1 || p.StandardMultiplier < 1:
		return fmt.Errorf("%w: multipliers must be at least 1", ErrInvalidParams)
	}
	return nil
}
