// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"github.com/samuelfneumann/hillracing/timestep"
	"gonum.org/v1/gonum/mat"
)

// Ender determines when episodes end. End reports whether t is the
// last step of its episode and, if so, adjusts its StepType and
// EndType accordingly.
type Ender interface {
	End(t *timestep.TimeStep) bool
}

// Task implements the reward scheme and episode termination rules for
// acting in some environment
type Task interface {
	Ender
	GetReward(state, action, nextState mat.Vector) float64
	AtGoal(state mat.Matrix) bool
	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	Task
	Reset() (timestep.TimeStep, error)
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
