// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes how an episode ended. Episodes which end because
// the environment reached a terminal state (the driver died or the
// finish line was reached) have end type TerminalStateReached. Episodes
// which are cut off before reaching a terminal state (the vehicle got
// stuck or a step limit was hit) have end type Timeout.
type EndType int

const (
	TerminalStateReached EndType = iota
	Timeout
	Unknown
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Discount    float64
	Observation *mat.VecDense
	Number      int
	endType     EndType
}

// New returns a new TimeStep. The end type of the TimeStep is Unknown
// until SetEnd is called.
func New(t StepType, r, d float64, o *mat.VecDense, n int) TimeStep {
	return TimeStep{t, r, d, o, n, Unknown}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd sets the way in which the episode ended
func (t *TimeStep) SetEnd(e EndType) {
	t.endType = e
}

// EndType returns how the episode ended. If the TimeStep is not the
// last in its episode, Unknown is returned.
func (t *TimeStep) EndType() EndType {
	if !t.Last() {
		return Unknown
	}
	return t.endType
}

// Terminated returns whether the episode reached a terminal state
func (t *TimeStep) Terminated() bool {
	return t.Last() && t.endType == TerminalStateReached
}

// Truncated returns whether the episode was cut off before reaching a
// terminal state
func (t *TimeStep) Truncated() bool {
	return t.Last() && t.endType == Timeout
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}
