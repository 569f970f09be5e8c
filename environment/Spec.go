package environment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action, an observation, a discount, or a
// reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	case Discount:
		return "Discount"
	default:
		return "Reward"
	}
}

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action, observation, discount, or reward in
// an environment
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// arguments describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// Contains returns an error if v does not have the shape of the Spec,
// if any of its elements fall outside the Spec bounds, or, for
// discrete specs, if any element is not a whole number.
func (s Spec) Contains(v mat.Vector) error {
	if vec, ok := v.(*mat.VecDense); v == nil || (ok && vec == nil) {
		return fmt.Errorf("contains: nil %v vector", s.Type)
	}
	if v.Len() != s.Shape.Len() {
		return fmt.Errorf("contains: %v vector has length %v, expected %v",
			s.Type, v.Len(), s.Shape.Len())
	}

	for i := 0; i < v.Len(); i++ {
		value := v.AtVec(i)
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("contains: %v feature %v is not finite", s.Type,
				i)
		}
		if value < s.LowerBound.AtVec(i) || value > s.UpperBound.AtVec(i) {
			return fmt.Errorf("contains: %v feature %v = %v ∉ [%v, %v]",
				s.Type, i, value, s.LowerBound.AtVec(i), s.UpperBound.AtVec(i))
		}
		if s.Cardinality == Discrete && value != math.Trunc(value) {
			return fmt.Errorf("contains: discrete %v feature %v = %v is "+
				"not a whole number", s.Type, i, value)
		}
	}
	return nil
}
