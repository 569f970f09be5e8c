// Package envconfig provides configuration structs for configuring
// hill racing environments with default physical parameters and tasks.
// Environment configurations in this package are JSON serializable.
package envconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/samuelfneumann/hillracing/environment/box2d/hillracing"
	ts "github.com/samuelfneumann/hillracing/timestep"
)

var (
	// ErrConfigNotFound is returned when loading a configuration file
	// that does not exist
	ErrConfigNotFound = errors.New("config not found")

	// ErrInvalidConfig is returned when a configuration cannot be
	// decoded or describes an environment that cannot be built
	ErrInvalidConfig = errors.New("invalid config")
)

// ActionSpace stores the name of an action space
type ActionSpace string

// Action spaces available for configuration
const (
	Discrete3  ActionSpace = "discrete_3"
	Discrete2  ActionSpace = "discrete_2"
	Continuous ActionSpace = "continuous"
)

// RewardFunction stores the name of a reward function
type RewardFunction string

// Reward functions available for configuration
const (
	Distance   RewardFunction = "distance"
	Action     RewardFunction = "action"
	WheelSpeed RewardFunction = "wheel_speed"
)

// RewardPreset stores the name of the magnitude of the idle and
// reverse penalties
type RewardPreset string

// Reward presets available for configuration
const (
	Soft       RewardPreset = "soft"
	Aggressive RewardPreset = "aggressive"
)

// RenderMode stores the name of a render mode
type RenderMode string

// Render modes available for configuration
const (
	None  RenderMode = "none"
	Human RenderMode = "human"
)

// Config implements a specific configuration of the hill racing
// environment. An EpisodeCutoff of 0 means episodes only end by
// termination or by getting stuck.
type Config struct {
	ActionSpace        ActionSpace    `json:"action_space"`
	RewardFunction     RewardFunction `json:"reward_function"`
	RewardPreset       RewardPreset   `json:"reward_type"`
	RenderMode         RenderMode     `json:"render_mode"`
	MaxStuckSteps      int            `json:"max_steps"`
	Difficulty         float64        `json:"difficulty"`
	EpisodeCutoff      uint           `json:"episode_cutoff"`
	Discount           float64        `json:"discount"`
	MaxTerrainAttempts int            `json:"max_terrain_attempts"`
}

// Default returns the default configuration: discrete actions with
// idling, distance based rewards with aggressive penalties, and no
// rendering
func Default() Config {
	return Config{
		ActionSpace:        Discrete3,
		RewardFunction:     Distance,
		RewardPreset:       Aggressive,
		RenderMode:         None,
		MaxStuckSteps:      hillracing.DefaultMaxStuckSteps,
		Difficulty:         hillracing.DefaultDifficulty,
		EpisodeCutoff:      0,
		Discount:           1.0,
		MaxTerrainAttempts: hillracing.MaxTerrainAttempts,
	}
}

// Load reads a JSON configuration from path. Fields missing from the
// file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load: %w: %v", ErrConfigNotFound, path)
	} else if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}

	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("load: %w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	return c, nil
}

// Save writes the configuration to path as JSON
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Validate returns an error wrapping ErrInvalidConfig if the
// configuration does not describe a valid environment
func (c Config) Validate() error {
	if _, err := c.actionSpace(); err != nil {
		return err
	}
	if _, err := c.preset(); err != nil {
		return err
	}

	switch c.RewardFunction {
	case Distance, Action, WheelSpeed:
	default:
		return fmt.Errorf("validate: %w: no such reward function %q",
			ErrInvalidConfig, c.RewardFunction)
	}

	switch c.RenderMode {
	case None, Human:
	default:
		return fmt.Errorf("validate: %w: no such render mode %q",
			ErrInvalidConfig, c.RenderMode)
	}

	if c.MaxStuckSteps <= 0 {
		return fmt.Errorf("validate: %w: max steps must be positive but "+
			"got %v", ErrInvalidConfig, c.MaxStuckSteps)
	}
	if c.MaxTerrainAttempts <= 0 {
		return fmt.Errorf("validate: %w: max terrain attempts must be "+
			"positive but got %v", ErrInvalidConfig, c.MaxTerrainAttempts)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: %w: discount %v ∉ [0, 1]",
			ErrInvalidConfig, c.Discount)
	}
	return nil
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment. The renderer is only used when
// the render mode is Human.
func (c Config) Create(seed uint64,
	renderer hillracing.Renderer) (hillracing.Env, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	task := c.Task()
	actionSpace, _ := c.actionSpace()
	opts := c.Options(seed, renderer)

	if actionSpace == hillracing.ContinuousWheelSpeed {
		env, step, err := hillracing.NewContinuous(task, opts)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
		}
		return env, step, nil
	}

	env, step, err := hillracing.NewDiscrete(task, actionSpace, opts)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	return env, step, nil
}

// Task returns the task described by the Config. Task panics if the
// Config is not valid.
func (c Config) Task() hillracing.Task {
	preset, err := c.preset()
	if err != nil {
		panic(fmt.Sprintf("task: %v", err))
	}
	cutoff := int(c.EpisodeCutoff)

	switch c.RewardFunction {
	case Distance:
		return hillracing.NewDistance(preset, c.MaxStuckSteps, cutoff)
	case Action:
		return hillracing.NewActionReward(preset, c.MaxStuckSteps, cutoff)
	case WheelSpeed:
		return hillracing.NewWheelSpeed(preset, c.MaxStuckSteps, cutoff)
	}
	panic(fmt.Sprintf("task: no such reward function %q", c.RewardFunction))
}

// Options returns the environment options described by the Config
func (c Config) Options(seed uint64,
	renderer hillracing.Renderer) hillracing.Options {
	opts := hillracing.DefaultOptions(seed)
	opts.Difficulty = c.Difficulty
	opts.Discount = c.Discount
	opts.MaxTerrainAttempts = c.MaxTerrainAttempts

	if c.RenderMode == Human {
		opts.RenderMode = hillracing.RenderHuman
		opts.Renderer = renderer
	}
	return opts
}

func (c Config) actionSpace() (hillracing.ActionSpace, error) {
	switch c.ActionSpace {
	case Discrete3:
		return hillracing.Discrete3, nil
	case Discrete2:
		return hillracing.Discrete2, nil
	case Continuous:
		return hillracing.ContinuousWheelSpeed, nil
	}
	return 0, fmt.Errorf("validate: %w: no such action space %q",
		ErrInvalidConfig, c.ActionSpace)
}

func (c Config) preset() (hillracing.Preset, error) {
	preset, err := hillracing.PresetByName(string(c.RewardPreset))
	if err != nil {
		return hillracing.Preset{}, fmt.Errorf("validate: %w: %v",
			ErrInvalidConfig, err)
	}
	return preset, nil
}
