package wrappers

import (
	"fmt"

	"github.com/samuelfneumann/hillracing/environment"
	ts "github.com/samuelfneumann/hillracing/timestep"
	"gonum.org/v1/gonum/mat"
)

// FilterObservation wraps an environment and keeps only a subset of
// the features of each observation. Rewards and episode termination
// are still computed by the wrapped environment on full observations,
// but AtGoal and GetReward called on the wrapper receive filtered
// observations and should not be used.
//
// FilterObservation itself implements the environment.Environment
// interface, and is therefore itself an Environment.
type FilterObservation struct {
	environment.Environment
	indices []int
}

// NewFilterObservation returns a new FilterObservation which keeps the
// observation features at indices, in the given order
func NewFilterObservation(env environment.Environment,
	indices []int) (*FilterObservation, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("newFilterObservation: no features to keep")
	}

	features := env.ObservationSpec().Shape.Len()
	seen := make(map[int]bool, len(indices))
	for _, index := range indices {
		if index < 0 || index >= features {
			return nil, fmt.Errorf("newFilterObservation: index %v ∉ "+
				"[0, %v)", index, features)
		}
		if seen[index] {
			return nil, fmt.Errorf("newFilterObservation: index %v "+
				"repeated", index)
		}
		seen[index] = true
	}

	return &FilterObservation{env, indices}, nil
}

// Reset resets the environment and returns the filtered first step
func (f *FilterObservation) Reset() (ts.TimeStep, error) {
	step, err := f.Environment.Reset()
	if err != nil {
		return step, err
	}
	step.Observation = f.filter(step.Observation)
	return step, nil
}

// Step takes one environmental step given action a and returns the
// filtered step
func (f *FilterObservation) Step(a *mat.VecDense) (ts.TimeStep, bool,
	error) {
	step, last, err := f.Environment.Step(a)
	if err != nil {
		return step, last, err
	}
	step.Observation = f.filter(step.Observation)
	return step, last, nil
}

// ObservationSpec returns the observation specification of the
// filtered observations
func (f *FilterObservation) ObservationSpec() environment.Spec {
	spec := f.Environment.ObservationSpec()

	shape := mat.NewVecDense(len(f.indices), nil)
	return environment.NewSpec(shape, spec.Type, f.filter(spec.LowerBound),
		f.filter(spec.UpperBound), spec.Cardinality)
}

func (f *FilterObservation) filter(v mat.Vector) *mat.VecDense {
	if v == nil {
		return nil
	}

	filtered := mat.NewVecDense(len(f.indices), nil)
	for i, index := range f.indices {
		filtered.SetVec(i, v.AtVec(index))
	}
	return filtered
}

func (f *FilterObservation) String() string {
	return fmt.Sprintf("FilterObservation%v: %v", f.indices, f.Environment)
}
