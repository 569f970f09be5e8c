package hillracing

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/hillracing/environment"
	ts "github.com/samuelfneumann/hillracing/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Task is a reward scheme and set of termination rules for the hill
// racing environment
type Task interface {
	environment.Task
	registerEnv(*hillRacing)
	reset()
}

// Preset determines the magnitude of the penalties for idling and
// driving in reverse
type Preset struct {
	Name    string
	Idle    float64
	Reverse float64
}

var (
	Soft       = Preset{Name: "soft", Idle: -0.1, Reverse: -0.2}
	Aggressive = Preset{Name: "aggressive", Idle: -0.5, Reverse: -1}
)

// PresetByName returns the preset with the given name
func PresetByName(name string) (Preset, error) {
	switch name {
	case Soft.Name:
		return Soft, nil
	case Aggressive.Name:
		return Aggressive, nil
	}
	return Preset{}, fmt.Errorf("presetByName: no such preset %q", name)
}

// Command is a high level motor command
type Command int

const (
	Idle Command = iota
	Gas
	Reverse
)

func (c Command) String() string {
	switch c {
	case Idle:
		return "idle"
	case Gas:
		return "gas"
	case Reverse:
		return "reverse"
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// IdleThreshold is the continuous action magnitude below which the
// action counts as idling for the action reward
const IdleThreshold float64 = 0.5

// base implements the termination rules shared by every Task.
// Episodes terminate with TerminalReward when the driver dies and
// terminate with a reward of 0 when the car reaches the end of the
// terrain. Episodes are truncated with TerminalReward when the car has
// been stuck for more than maxStuckSteps steps, and are truncated when
// the optional step limit is reached.
type base struct {
	Preset
	maxStuckSteps int

	death     environment.Ender
	goal      environment.Ender
	stuck     environment.Ender
	stepLimit environment.Ender

	env *hillRacing
}

// newBase returns a new base task. If cutoff is not positive, episodes
// have no step limit.
func newBase(preset Preset, maxStuckSteps, cutoff int) *base {
	if maxStuckSteps <= 0 {
		panic(fmt.Sprintf("newBase: max stuck steps must be positive but "+
			"got %v", maxStuckSteps))
	}

	b := &base{Preset: preset, maxStuckSteps: maxStuckSteps}

	b.death = environment.NewFunctionEnder(func(*mat.VecDense) bool {
		return b.env.vehicle.Dead()
	}, ts.TerminalStateReached)

	goalX := float64(MaxScore) + SpawnX/Scale
	b.goal = environment.NewIntervalLimit(
		[]r1.Interval{{Min: math.Inf(-1), Max: goalX}},
		[]int{ChassisX},
		ts.TerminalStateReached,
	)

	b.stuck = environment.NewFunctionEnder(func(*mat.VecDense) bool {
		return b.env.stuckSteps > b.maxStuckSteps
	}, ts.Timeout)

	if cutoff > 0 {
		b.stepLimit = environment.NewStepLimit(cutoff)
	}
	return b
}

func (b *base) registerEnv(env *hillRacing) {
	b.env = env
}

func (b *base) reset() {}

// End determines whether the episode has ended. Death takes precedence
// over reaching the goal, which takes precedence over truncation. The
// step reaching the goal is not rewarded.
func (b *base) End(t *ts.TimeStep) bool {
	if b.death.End(t) {
		t.Reward = TerminalReward
		return true
	}
	if b.goal.End(t) {
		t.Reward = 0
		return true
	}
	if b.stuck.End(t) {
		t.Reward = TerminalReward
		return true
	}
	return b.stepLimit != nil && b.stepLimit.End(t)
}

// AtGoal returns whether the car in state has reached the end of the
// terrain
func (b *base) AtGoal(state mat.Matrix) bool {
	return state.At(ChassisX, 0) > float64(MaxScore)+SpawnX/Scale
}

func (b *base) rewardBounds(upper float64) environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{TerminalReward})
	upperBound := mat.NewVecDense(1, []float64{upper})

	return environment.NewSpec(shape, environment.Reward, lowerBound,
		upperBound, environment.Continuous)
}

// Distance rewards the car for advancing its high-water mark. Steps
// that advance the high-water mark by Δ are rewarded with 1 + Δ. Steps
// that leave the car behind its previous high-water mark by δ are
// rewarded with the reverse penalty minus δ, and all other steps are
// rewarded with the idle penalty.
type Distance struct {
	*base
}

// NewDistance returns a new distance based Task
func NewDistance(preset Preset, maxStuckSteps, cutoff int) Task {
	return &Distance{newBase(preset, maxStuckSteps, cutoff)}
}

// GetReward returns the reward for the transition into nextState
func (d *Distance) GetReward(_, _, nextState mat.Vector) float64 {
	x := nextState.AtVec(ChassisX)
	prev := d.env.prevMaxDistance

	switch {
	case x < prev:
		return d.Reverse + (x - prev)
	case x-prev < 0.001:
		return d.Idle
	default:
		return 1 + (x - prev)
	}
}

// RewardSpec returns the reward specification of the task
func (d *Distance) RewardSpec() environment.Spec {
	// Box2D limits bodies to 2 units per step
	return d.rewardBounds(1 + 2)
}

// ActionReward rewards each step by the motor command chosen,
// independent of the outcome of the command. Gas is rewarded with 1,
// and idling and reversing with the penalties of the preset.
type ActionReward struct {
	*base
}

// NewActionReward returns a new action based Task
func NewActionReward(preset Preset, maxStuckSteps, cutoff int) Task {
	return &ActionReward{newBase(preset, maxStuckSteps, cutoff)}
}

// GetReward returns the reward for taking action
func (a *ActionReward) GetReward(_, action, _ mat.Vector) float64 {
	switch a.env.command(action) {
	case Gas:
		return 1
	case Reverse:
		return a.Reverse
	default:
		return a.Idle
	}
}

// RewardSpec returns the reward specification of the task
func (a *ActionReward) RewardSpec() environment.Spec {
	return a.rewardBounds(1)
}

// WheelSpeed rewards each step by the speeds of the wheels after the
// step. Wheels turning slower than 1 rad/s count as idle. Both wheels
// turning forward is rewarded with 1, both wheels turning backward
// with the reverse penalty, and anything else with 0.
type WheelSpeed struct {
	*base
}

// NewWheelSpeed returns a new wheel speed based Task
func NewWheelSpeed(preset Preset, maxStuckSteps, cutoff int) Task {
	return &WheelSpeed{newBase(preset, maxStuckSteps, cutoff)}
}

// GetReward returns the reward for the transition into nextState
func (w *WheelSpeed) GetReward(_, _, nextState mat.Vector) float64 {
	speeds := []float64{
		nextState.AtVec(RearWheelSpeed),
		nextState.AtVec(FrontWheelSpeed),
	}

	idle, forward, backward := true, true, true
	for _, speed := range speeds {
		idle = idle && speed >= -1 && speed <= 1
		forward = forward && speed < 0
		backward = backward && speed > 0
	}

	switch {
	case idle:
		return w.Idle
	case forward:
		return 1
	case backward:
		return w.Reverse
	default:
		return 0
	}
}

// RewardSpec returns the reward specification of the task
func (w *WheelSpeed) RewardSpec() environment.Spec {
	return w.rewardBounds(1)
}
