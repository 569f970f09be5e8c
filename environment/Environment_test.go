package environment

import (
	"math"
	"testing"

	"github.com/samuelfneumann/hillracing/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestSpecContains(t *testing.T) {
	discrete := NewSpec(mat.NewVecDense(1, nil), Action,
		mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{2}),
		Discrete)
	continuous := NewSpec(mat.NewVecDense(1, nil), Action,
		mat.NewVecDense(1, []float64{-13}), mat.NewVecDense(1, []float64{13}),
		Continuous)

	tests := []struct {
		name  string
		spec  Spec
		value *mat.VecDense
		ok    bool
	}{
		{"discrete in range", discrete, mat.NewVecDense(1, []float64{2}), true},
		{"discrete fractional", discrete, mat.NewVecDense(1, []float64{1.5}), false},
		{"discrete above", discrete, mat.NewVecDense(1, []float64{3}), false},
		{"discrete below", discrete, mat.NewVecDense(1, []float64{-1}), false},
		{"wrong length", discrete, mat.NewVecDense(2, nil), false},
		{"nil", discrete, nil, false},
		{"continuous in range", continuous, mat.NewVecDense(1, []float64{-12.5}), true},
		{"continuous nan", continuous, mat.NewVecDense(1, []float64{math.NaN()}), false},
		{"continuous inf", continuous, mat.NewVecDense(1, []float64{math.Inf(1)}), false},
		{"continuous above", continuous, mat.NewVecDense(1, []float64{13.01}), false},
	}

	for _, test := range tests {
		err := test.spec.Contains(test.value)
		if test.ok && err != nil {
			t.Errorf("%v: unexpected error %v", test.name, err)
		} else if !test.ok && err == nil {
			t.Errorf("%v: expected an error", test.name)
		}
	}
}

func TestNewSpecPanicsOnShapeMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewSpec did not panic on mismatched bounds")
		}
	}()
	NewSpec(mat.NewVecDense(2, nil), Observation, mat.NewVecDense(1, nil),
		mat.NewVecDense(2, nil), Continuous)
}

func TestStepLimit(t *testing.T) {
	ender := NewStepLimit(10)

	step := timestep.New(timestep.Mid, 0, 1, nil, 9)
	if ender.End(&step) {
		t.Error("step limit ended episode early")
	}

	step = timestep.New(timestep.Mid, 0, 1, nil, 10)
	if !ender.End(&step) {
		t.Fatal("step limit did not end episode")
	}
	if !step.Truncated() {
		t.Errorf("step limit end type: want(%v) have(%v)", timestep.Timeout,
			step.EndType())
	}
}

func TestFunctionEnder(t *testing.T) {
	ender := NewFunctionEnder(func(v *mat.VecDense) bool {
		return v.AtVec(0) > 1
	}, timestep.TerminalStateReached)

	step := timestep.New(timestep.Mid, 0, 1, mat.NewVecDense(1, []float64{0}), 1)
	if ender.End(&step) {
		t.Error("function ender ended episode early")
	}

	step.Observation.SetVec(0, 2)
	if !ender.End(&step) || !step.Terminated() {
		t.Error("function ender did not terminate episode")
	}
}

func TestIntervalLimit(t *testing.T) {
	ender := NewIntervalLimit([]r1.Interval{{Min: 0, Max: 5}}, []int{1},
		timestep.TerminalStateReached)

	obs := mat.NewVecDense(2, []float64{100, 5})
	step := timestep.New(timestep.Mid, 0, 1, obs, 1)
	if ender.End(&step) {
		t.Error("interval limit ended episode on the boundary")
	}

	obs.SetVec(1, 5.5)
	if !ender.End(&step) || !step.Terminated() {
		t.Error("interval limit did not end episode outside interval")
	}
}
