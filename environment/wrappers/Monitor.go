// Package wrappers implements environments which wrap other
// environments to record or change what they produce
package wrappers

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/hillracing/environment"
	ts "github.com/samuelfneumann/hillracing/timestep"
	"gonum.org/v1/gonum/mat"
)

// Scorer is an environment that keeps a score for each episode
type Scorer interface {
	Score() int
}

// Episode records the outcome of a single finished episode
type Episode struct {
	Return     float64
	Length     int
	Score      int
	Terminated bool
	Truncated  bool
}

// Monitor wraps an environment and records the return, length, and
// score of each episode. If the wrapped environment is not a Scorer,
// scores are recorded as 0.
//
// Episodes are only recorded once they finish. An episode interrupted
// by Reset is discarded.
//
// Monitor itself implements the environment.Environment interface, and
// is therefore itself an Environment.
type Monitor struct {
	environment.Environment
	filename string

	current  Episode
	episodes []Episode
}

// NewMonitor returns a new Monitor which saves its records to filename
func NewMonitor(env environment.Environment, filename string) *Monitor {
	return &Monitor{Environment: env, filename: filename}
}

// Reset resets the environment and starts a new episode record
func (m *Monitor) Reset() (ts.TimeStep, error) {
	step, err := m.Environment.Reset()
	if err != nil {
		return step, err
	}
	m.current = Episode{}
	return step, nil
}

// Step takes one environmental step given action a, recording the
// episode if the step is the last in its episode
func (m *Monitor) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	step, last, err := m.Environment.Step(a)
	if err != nil {
		return step, last, err
	}

	m.current.Return += step.Reward
	m.current.Length++

	if last {
		m.current.Terminated = step.Terminated()
		m.current.Truncated = step.Truncated()
		if scorer, ok := m.Environment.(Scorer); ok {
			m.current.Score = scorer.Score()
		}
		m.episodes = append(m.episodes, m.current)
		m.current = Episode{}
	}
	return step, last, nil
}

// Episodes returns the episodes recorded so far
func (m *Monitor) Episodes() []Episode {
	episodes := make([]Episode, len(m.episodes))
	copy(episodes, m.episodes)
	return episodes
}

// Save saves the recorded episodes to disk
func (m *Monitor) Save() error {
	file, err := os.Create(m.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(m.episodes); err != nil {
		return fmt.Errorf("save: could not encode episodes: %v", err)
	}
	return nil
}

// LoadMonitorData loads and returns the episodes saved by a Monitor
func LoadMonitorData(filename string) ([]Episode, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadMonitorData: could not open data "+
			"file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var episodes []Episode
	if err := dec.Decode(&episodes); err != nil {
		return nil, fmt.Errorf("loadMonitorData: could not decode data: %v",
			err)
	}
	return episodes, nil
}

func (m *Monitor) String() string {
	return fmt.Sprintf("Monitor: %v", m.Environment)
}
