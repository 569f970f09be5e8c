package environment

import (
	"fmt"

	"github.com/samuelfneumann/hillracing/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

// IntervalLimit implements the Ender interface to end episodes
// whenever a single feature in a feature vector leaves some interval
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
	endType   timestep.EndType
}

// NewIntervalLimit creates and returns a new interval limit. The
// endType argument determines what the episode end should be
// considered as.
func NewIntervalLimit(limits []r1.Interval, obsIndices []int,
	endType timestep.EndType) Ender {
	if len(limits) != len(obsIndices) {
		panic(fmt.Sprintf("newIntervalLimit: %v limits given for %v "+
			"observation indices", len(limits), len(obsIndices)))
	}

	return &IntervalLimit{limits, obsIndices, endType}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() will modify the timestep so that its StepType
// field is timestep.Last and its EndType is the appropriate ending
// type.
func (i *IntervalLimit) End(t *timestep.TimeStep) bool {
	for index, featureIndex := range i.indices {
		interval := i.intervals[index]
		feature := t.Observation.AtVec(featureIndex)

		if feature > interval.Max || feature < interval.Min {
			t.StepType = timestep.Last
			t.SetEnd(i.endType)
			return true
		}
	}
	return false
}
