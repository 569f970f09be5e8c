package hillracing

import (
	"fmt"

	"github.com/samuelfneumann/hillracing/environment"
	ts "github.com/samuelfneumann/hillracing/timestep"
	"gonum.org/v1/gonum/mat"
)

// Continuous implements the hill racing environment with continuous
// actions. Observations are the same as those of Discrete.
//
// Actions are 1-dimensional and continuous in the interval [-13, 13].
// An action v turns on both wheel motors with a target speed of v·π
// rad/s, where positive values drive the car forward and 0 holds the
// wheels in place. Actions outside of [-13, 13] are rejected with
// ErrIllegalAction.
//
// Continuous implements the environment.Environment interface.
type Continuous struct {
	*hillRacing
}

// NewContinuous returns a new hill racing environment with continuous
// actions together with the first step of its first episode
func NewContinuous(task Task, opts Options) (*Continuous, ts.TimeStep,
	error) {
	h, step, err := newHillRacing(task, ContinuousWheelSpeed, opts)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newContinuous: %w", err)
	}
	return &Continuous{h}, step, nil
}

// ActionSpec returns the action specification of the environment
func (c *Continuous) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{MinContinuousAction})
	upperBound := mat.NewVecDense(1, []float64{MaxContinuousAction})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Continuous)
}

// Step takes one environmental step given some action
func (c *Continuous) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if err := c.ActionSpec().Contains(action); err != nil {
		return c.prevStep, c.over, fmt.Errorf("step: %w: %v",
			ErrIllegalAction, err)
	}

	return c.step(action, func(v *Vehicle) error {
		return v.SetMotorSpeed(action.AtVec(0))
	})
}
