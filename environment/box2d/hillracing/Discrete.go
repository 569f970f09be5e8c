package hillracing

import (
	"fmt"

	"github.com/samuelfneumann/hillracing/environment"
	ts "github.com/samuelfneumann/hillracing/timestep"
	"gonum.org/v1/gonum/mat"
)

// Discrete implements the hill racing environment with discrete
// actions. A car drives from left to right over procedurally generated
// hills. The terrain is MaxScore physics units long, and the car earns
// one point of score for each physics unit it advances past its spawn
// point.
//
// State observations are vectors consisting of the following features
// in the following order:
//
//	1. The x position of the chassis in physics units
//	   Bounds: [0, GroundDistance / Scale]
//	2. The y position of the chassis in physics units, with y
//	   increasing downward
//	   Bounds: [0, 700]
//	   Technically the car dies once its y position passes
//	   ScreenHeight / Scale, but the bound is kept loose.
//	3. The heading of the chassis in degrees, increasing as the nose
//	   of the car rises
//	   Bounds: [0, 360)
//	4. The speed of the rear wheel drivetrain
//	   Bounds: [-13π - 0.1, 13π + 0.1]
//	   Negative speeds drive the car forward.
//	5. The speed of the front wheel drivetrain
//	   Bounds: [-13π - 0.1, 13π + 0.1]
//	6. Whether the rear wheel touches the ground
//	   Bounds: feature in the set {0, 1}
//	7. Whether the front wheel touches the ground
//	   Bounds: feature in the set {0, 1}
//
// Actions are 1-dimensional. With the Discrete3 action space, actions
// are Idle (0), Gas (1), or Reverse (2). With the Discrete2 action
// space, actions are Gas (1) or Reverse (2). Idling turns both wheel
// motors off so the car rolls freely. Actions outside of the action
// space are rejected with ErrIllegalAction.
//
// Discrete implements the environment.Environment interface.
type Discrete struct {
	*hillRacing
}

// NewDiscrete returns a new hill racing environment with discrete
// actions together with the first step of its first episode
func NewDiscrete(task Task, actionSpace ActionSpace,
	opts Options) (*Discrete, ts.TimeStep, error) {
	if actionSpace != Discrete3 && actionSpace != Discrete2 {
		return nil, ts.TimeStep{}, fmt.Errorf("newDiscrete: %v is not a "+
			"discrete action space", actionSpace)
	}

	h, step, err := newHillRacing(task, actionSpace, opts)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newDiscrete: %w", err)
	}
	return &Discrete{h}, step, nil
}

// ActionSpec returns the action specification of the environment
func (d *Discrete) ActionSpec() environment.Spec {
	minAction := float64(MinDiscreteAction)
	if d.actionSpace == Discrete2 {
		minAction = float64(Gas)
	}

	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{minAction})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Discrete)
}

// Step takes one environmental step given some action
func (d *Discrete) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if err := d.ActionSpec().Contains(action); err != nil {
		return d.prevStep, d.over, fmt.Errorf("step: %w: %v",
			ErrIllegalAction, err)
	}

	return d.step(action, func(v *Vehicle) error {
		switch Command(int(action.AtVec(0))) {
		case Gas:
			v.MotorOn(true)
		case Reverse:
			v.MotorOn(false)
		default:
			v.MotorOff()
		}
		return nil
	})
}
