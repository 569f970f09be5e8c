// Package hillracing provides an implementation of a side-scrolling
// hill climb driving environment. A car made of a chassis, two sprung
// wheels, and a ragdoll driver drives over procedurally generated
// terrain. The episode ends when the driver's head touches the ground,
// the car falls off the world, the car reaches the end of the terrain,
// or the car stops making progress.
package hillracing

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/hillracing/environment"
	ts "github.com/samuelfneumann/hillracing/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// Pixels per physics unit
	Scale float64 = 30

	FPS                float64 = 60
	Gravity            float64 = 10 // +y points down
	VelocityIterations int     = 6 * int(Scale)
	PositionIterations int     = 2 * int(Scale)

	ScreenWidth  float64 = 1280
	ScreenHeight float64 = 720

	// Spawn x position of the car in pixels
	SpawnX float64 = 200

	// Score at which the car has reached the end of the terrain. The
	// terrain is long enough for the car to advance MaxScore physics
	// units past its spawn point.
	MaxScore       int     = 1000
	GroundDistance float64 = float64(MaxScore)*Scale + SpawnX

	// Difficulty scales from -250 (easiest) to 80 (hardest)
	DefaultDifficulty float64 = -180

	TerminalReward float64 = -100

	// Number of steps without progress before an episode is truncated
	DefaultMaxStuckSteps int = 20 * int(FPS)

	// The stuck counter is reset each time the car reaches a new
	// multiple of StuckInterval physics units
	StuckInterval float64 = 20

	// Action
	MinDiscreteAction   int     = 0
	MaxDiscreteAction   int     = 2
	MaxContinuousAction float64 = 13
	MinContinuousAction float64 = -MaxContinuousAction

	// State observations
	StateObservations int     = 7
	MinAngle          float64 = 0
	MaxAngle          float64 = 360
	MaxWheelSpeed     float64 = MaxContinuousAction*math.Pi + 0.1
	MinWheelSpeed     float64 = -MaxWheelSpeed
	MaxX              float64 = GroundDistance / Scale
	MaxY              float64 = 700
)

// Indices of features in observation vectors
const (
	ChassisX int = iota
	ChassisY
	ChassisAngle
	RearWheelSpeed
	FrontWheelSpeed
	RearOnGround
	FrontOnGround
)

// Named groups of observation features
var ObservationKeys = map[string][]int{
	"chassis_position": {ChassisX, ChassisY},
	"chassis_angle":    {ChassisAngle},
	"wheels_speed":     {RearWheelSpeed, FrontWheelSpeed},
	"on_ground":        {RearOnGround, FrontOnGround},
}

var (
	// ErrEpisodeOver is returned when stepping an environment whose
	// episode has ended without resetting it
	ErrEpisodeOver = errors.New("episode is over")

	// ErrNoRenderer is returned when a human render mode is requested
	// without a Renderer
	ErrNoRenderer = errors.New("no renderer")
)

// ActionSpace determines how actions are interpreted
type ActionSpace int

const (
	// Discrete3 actions are Idle, Gas, and Reverse
	Discrete3 ActionSpace = iota

	// Discrete2 actions are Gas and Reverse
	Discrete2

	// ContinuousWheelSpeed actions set the target speed of both wheels
	// in multiples of π rad/s, with positive speeds driving forward
	ContinuousWheelSpeed
)

func (a ActionSpace) String() string {
	switch a {
	case Discrete3:
		return "discrete_3"
	case Discrete2:
		return "discrete_2"
	case ContinuousWheelSpeed:
		return "continuous"
	}
	return fmt.Sprintf("ActionSpace(%d)", int(a))
}

// RenderMode determines whether an environment draws itself after
// every Reset and Step
type RenderMode int

const (
	RenderNone RenderMode = iota
	RenderHuman
)

func (r RenderMode) String() string {
	if r == RenderHuman {
		return "human"
	}
	return "none"
}

// Renderer draws snapshots of an environment. Renderers must treat
// snapshots as read-only.
type Renderer interface {
	Render(Snapshot) error
}

// Options configures a hill racing environment
type Options struct {
	Seed               uint64
	Difficulty         float64
	Discount           float64
	MaxTerrainAttempts int
	RenderMode         RenderMode
	Renderer           Renderer
}

// DefaultOptions returns the default environment options with the
// given seed
func DefaultOptions(seed uint64) Options {
	return Options{
		Seed:               seed,
		Difficulty:         DefaultDifficulty,
		Discount:           1.0,
		MaxTerrainAttempts: MaxTerrainAttempts,
		RenderMode:         RenderNone,
	}
}

// Observation is the structured form of an observation vector
type Observation struct {
	ChassisPosition [2]float64
	ChassisAngle    float64
	WheelSpeeds     [2]float64
	OnGround        [2]bool
}

// Vector returns the observation as a vector with features ordered as
// described by the observation index constants
func (o Observation) Vector() *mat.VecDense {
	return mat.NewVecDense(StateObservations, []float64{
		o.ChassisPosition[0],
		o.ChassisPosition[1],
		o.ChassisAngle,
		o.WheelSpeeds[0],
		o.WheelSpeeds[1],
		boolToFloat(o.OnGround[0]),
		boolToFloat(o.OnGround[1]),
	})
}

// ObservationFromVector converts an observation vector back into an
// Observation
func ObservationFromVector(v mat.Vector) (Observation, error) {
	if v.Len() != StateObservations {
		return Observation{}, fmt.Errorf("observationFromVector: expected "+
			"%v features but got %v", StateObservations, v.Len())
	}

	return Observation{
		ChassisPosition: [2]float64{v.AtVec(ChassisX), v.AtVec(ChassisY)},
		ChassisAngle:    v.AtVec(ChassisAngle),
		WheelSpeeds: [2]float64{
			v.AtVec(RearWheelSpeed),
			v.AtVec(FrontWheelSpeed),
		},
		OnGround: [2]bool{
			v.AtVec(RearOnGround) != 0,
			v.AtVec(FrontOnGround) != 0,
		},
	}, nil
}

// Info summarises the progress of the current episode
type Info struct {
	CarPosition     float64
	PrevMaxDistance float64
	MaxDistance     float64
	Score           int
	Dead            bool
	StuckSteps      int
	Steps           int
	Airtime         int
}

// Env is a hill racing environment with any action space
type Env interface {
	environment.Environment
	ResetWithSeed(seed *uint64) (ts.TimeStep, error)
	ActionSpace() ActionSpace
	Info() Info
	Score() int
	Snapshot() Snapshot
	Profile() Profile
	Vehicle() *Vehicle
}

// hillRacing implements the functionality shared by all action spaces
// of the hill racing environment
type hillRacing struct {
	Task

	world    *box2d.B2World
	parts    registry
	contacts *contactDetector
	terrain  *terrain
	profile  Profile
	vehicle  *Vehicle

	actionSpace ActionSpace

	src        rand.Source
	difficulty float64
	attempts   int
	discount   float64

	renderMode RenderMode
	renderer   Renderer

	prevMaxDistance float64
	checkpoint      float64
	stuckSteps      int

	prevStep ts.TimeStep
	over     bool
}

func newHillRacing(task Task, actionSpace ActionSpace,
	opts Options) (*hillRacing, ts.TimeStep, error) {
	if opts.RenderMode == RenderHuman && opts.Renderer == nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newHillRacing: %w for "+
			"render mode %v", ErrNoRenderer, opts.RenderMode)
	}
	if opts.MaxTerrainAttempts <= 0 {
		return nil, ts.TimeStep{}, fmt.Errorf("newHillRacing: terrain "+
			"attempts must be positive but got %v", opts.MaxTerrainAttempts)
	}
	if opts.Discount < 0 || opts.Discount > 1 {
		return nil, ts.TimeStep{}, fmt.Errorf("newHillRacing: discount "+
			"%v ∉ [0, 1]", opts.Discount)
	}

	h := &hillRacing{
		Task:        task,
		actionSpace: actionSpace,
		src:         rand.NewSource(opts.Seed),
		difficulty:  opts.Difficulty,
		attempts:    opts.MaxTerrainAttempts,
		discount:    opts.Discount,
		renderMode:  opts.RenderMode,
		renderer:    opts.Renderer,
	}
	task.registerEnv(h)

	step, err := h.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, err
	}
	return h, step, nil
}

// Reset resets the environment to a new starting state on a newly
// generated terrain
func (h *hillRacing) Reset() (ts.TimeStep, error) {
	return h.ResetWithSeed(nil)
}

// ResetWithSeed resets the environment. If seed is not nil, the random
// source of the environment is reseeded first so that the terrain and
// vehicle of the new episode are determined by seed.
func (h *hillRacing) ResetWithSeed(seed *uint64) (ts.TimeStep, error) {
	if seed != nil {
		h.src.Seed(*seed)
	}

	// The previous episode stays in place, over, if no terrain is found
	profile, err := GenerateTerrain(h.src, h.difficulty, h.attempts)
	if err != nil {
		h.over = true
		return h.prevStep, fmt.Errorf("reset: %w", err)
	}
	h.destroy()

	h.world = newWorld()
	h.parts = make(registry)
	h.contacts = newContactDetector(h.parts)
	h.world.SetContactListener(h.contacts)

	h.profile = profile
	h.terrain = newTerrain(h.world, h.parts, profile)
	h.vehicle = spawnVehicle(h.world, h.parts, SpawnX, profile.SpawnY,
		h.shirt())

	h.prevMaxDistance = h.vehicle.MaxDistance()
	h.checkpoint = 0
	h.stuckSteps = 0
	h.Task.reset()

	obs := h.observation()
	h.prevStep = ts.New(ts.First, 0, h.discount, obs, 0)
	h.over = false

	if err := h.render(); err != nil {
		return h.prevStep, fmt.Errorf("reset: %w", err)
	}
	return h.prevStep, nil
}

// step takes one environment step. The drive function applies an
// already validated action to the vehicle.
func (h *hillRacing) step(action *mat.VecDense,
	drive func(*Vehicle) error) (ts.TimeStep, bool, error) {
	if h.over {
		return h.prevStep, true, fmt.Errorf("step: %w", ErrEpisodeOver)
	}
	if err := drive(h.vehicle); err != nil {
		return h.prevStep, false, fmt.Errorf("step: %w", err)
	}

	h.prevMaxDistance = h.vehicle.MaxDistance()
	h.world.Step(1.0/FPS, VelocityIterations, PositionIterations)
	h.vehicle.update()

	if err := h.vehicle.validate(); err != nil {
		h.over = true
		return h.prevStep, true, fmt.Errorf("step: %w", err)
	}
	h.updateStuck()

	obs := h.observation()
	reward := h.GetReward(h.prevStep.Observation, action, obs)
	t := ts.New(ts.Mid, reward, h.discount, obs, h.prevStep.Number+1)
	h.End(&t)

	h.prevStep = t
	h.over = t.Last()

	if err := h.render(); err != nil {
		return t, t.Last(), fmt.Errorf("step: %w", err)
	}
	return t, t.Last(), nil
}

// command returns the motor command that action amounts to in the
// action space of the environment
func (h *hillRacing) command(action mat.Vector) Command {
	value := action.AtVec(0)
	if h.actionSpace == ContinuousWheelSpeed {
		switch {
		case math.Abs(value) < IdleThreshold:
			return Idle
		case value > 0:
			return Gas
		default:
			return Reverse
		}
	}
	return Command(int(value))
}

// ActionFor returns the action that issues motor command c in the
// given action space. Continuous actions drive the wheels at full
// speed. Discrete2 has no idle action, and an error is returned for it.
func ActionFor(space ActionSpace, c Command) (*mat.VecDense, error) {
	if c < Idle || c > Reverse {
		return nil, fmt.Errorf("actionFor: %w: %v", ErrIllegalAction, c)
	}

	switch space {
	case ContinuousWheelSpeed:
		speed := map[Command]float64{
			Idle:    0,
			Gas:     MaxContinuousAction,
			Reverse: MinContinuousAction,
		}[c]
		return mat.NewVecDense(1, []float64{speed}), nil

	case Discrete2:
		if c == Idle {
			return nil, fmt.Errorf("actionFor: %w: %v cannot idle",
				ErrIllegalAction, space)
		}
	}
	return mat.NewVecDense(1, []float64{float64(c)}), nil
}

// ActionSpace returns the action space of the environment
func (h *hillRacing) ActionSpace() ActionSpace {
	return h.actionSpace
}

// updateStuck resets the stuck counter when the car reaches a multiple
// of StuckInterval it has not reached before, and increments it
// otherwise
func (h *hillRacing) updateStuck() {
	cell := math.Floor(h.vehicle.Position().X)
	if math.Mod(cell, StuckInterval) == 0 && cell > h.checkpoint {
		h.checkpoint = cell
		h.stuckSteps = 0
		return
	}
	h.stuckSteps++
}

func (h *hillRacing) render() error {
	if h.renderMode != RenderHuman {
		return nil
	}
	return h.renderer.Render(h.Snapshot())
}

func (h *hillRacing) observation() *mat.VecDense {
	pos := h.vehicle.Position()
	return Observation{
		ChassisPosition: [2]float64{pos.X, pos.Y},
		ChassisAngle:    h.vehicle.AngleDegrees(),
		WheelSpeeds:     h.vehicle.WheelSpeeds(),
		OnGround:        h.vehicle.OnGround(),
	}.Vector()
}

// shirt draws a random shirt colour for the driver
func (h *hillRacing) shirt() color.RGBA {
	channel := distuv.Uniform{Min: 0, Max: 256, Src: h.src}
	return color.RGBA{
		R: uint8(channel.Rand()),
		G: uint8(channel.Rand()),
		B: uint8(channel.Rand()),
		A: 255,
	}
}

// newWorld returns an empty world in which fixtures only collide when
// their collision filters allow it
func newWorld() *box2d.B2World {
	world := box2d.MakeB2World(box2d.MakeB2Vec2(0, Gravity))
	world.SetContactFilter(&box2d.B2ContactFilter{})
	return &world
}

// destroy removes the vehicle and terrain from the current world
func (h *hillRacing) destroy() {
	if h.world == nil {
		return
	}
	if h.vehicle != nil {
		h.vehicle.destroy(h.world, h.parts)
	}
	if h.terrain != nil {
		h.terrain.destroy(h.world, h.parts)
	}
	h.world.SetContactListener(nil)
	h.vehicle = nil
	h.terrain = nil
}

// Vehicle returns the vehicle of the current episode
func (h *hillRacing) Vehicle() *Vehicle {
	return h.vehicle
}

// Profile returns the terrain profile of the current episode
func (h *hillRacing) Profile() Profile {
	return h.profile
}

// Score returns the score of the current episode
func (h *hillRacing) Score() int {
	return h.vehicle.Score()
}

// Info returns information on the current episode
func (h *hillRacing) Info() Info {
	return Info{
		CarPosition:     h.vehicle.Position().X,
		PrevMaxDistance: h.prevMaxDistance,
		MaxDistance:     h.vehicle.MaxDistance(),
		Score:           h.vehicle.Score(),
		Dead:            h.vehicle.Dead(),
		StuckSteps:      h.stuckSteps,
		Steps:           h.prevStep.Number,
		Airtime:         h.vehicle.Airtime(),
	}
}

// CurrentTimeStep returns the last TimeStep produced by the
// environment
func (h *hillRacing) CurrentTimeStep() ts.TimeStep {
	return h.prevStep
}

// DiscountSpec returns the discount specification of the environment
func (h *hillRacing) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{h.discount})

	return environment.NewSpec(shape, environment.Discount, lowerBound,
		lowerBound, environment.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (h *hillRacing) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(StateObservations, nil)

	lowerBound := mat.NewVecDense(StateObservations, []float64{
		0,
		0,
		MinAngle,
		MinWheelSpeed,
		MinWheelSpeed,
		0,
		0,
	})

	upperBound := mat.NewVecDense(StateObservations, []float64{
		MaxX,
		MaxY,
		MaxAngle,
		MaxWheelSpeed,
		MaxWheelSpeed,
		1,
		1,
	})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

func (h *hillRacing) String() string {
	pos := h.vehicle.Position()
	return fmt.Sprintf("HillRacing{x: %.2f, y: %.2f, score: %v, dead: %v, "+
		"step: %v}", pos.X, pos.Y, h.vehicle.Score(), h.vehicle.Dead(),
		h.prevStep.Number)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
