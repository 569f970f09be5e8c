// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// Remap linearly maps value from the interval from onto the interval
// to. Values outside of from are clamped to the nearest endpoint of
// to, so Remap never extrapolates.
func Remap(value float64, from, to r1.Interval) float64 {
	if from.Max == from.Min {
		return to.Min
	}
	value = ClipInterval(value, from)
	return to.Min + (value-from.Min)*(to.Max-to.Min)/(from.Max-from.Min)
}

// Wrap wraps value into the half-open interval [min, max)
func Wrap(value, min, max float64) float64 {
	width := max - min
	wrapped := math.Mod(value-min, width)
	if wrapped < 0 {
		wrapped += width
	}
	return wrapped + min
}

// Sign returns -1 for negative values, 1 for positive values, and 0
// for zero
func Sign(value float64) float64 {
	switch {
	case value < 0:
		return -1
	case value > 0:
		return 1
	default:
		return 0
	}
}
