package hillracing

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/samuelfneumann/hillracing/utils/floatutils"
)

// Perlin noise parameters used to shape terrain
const (
	NoiseAlpha   float64 = 2.0
	NoiseBeta    float64 = 2.0
	NoiseOctaves int32   = 4
)

// Noise generates smooth one dimensional noise in [0, 1]. Each Noise
// owns its own permutation table, so terrain generations using
// different Noise values never affect each other.
type Noise struct {
	perlin *perlin.Perlin
	seed   int64
}

// NewNoise returns a new Noise whose permutation table is determined
// by seed
func NewNoise(seed int64) *Noise {
	return &Noise{
		perlin: perlin.NewPerlin(NoiseAlpha, NoiseBeta, NoiseOctaves, seed),
		seed:   seed,
	}
}

// Seed returns the seed of the permutation table
func (n *Noise) Seed() int64 {
	return n.seed
}

// Sample returns the absolute value of the noise at offset + position,
// normalised by the total amplitude of the octaves. For a fixed table,
// Sample is deterministic and continuous in position.
func (n *Noise) Sample(offset, position float64) float64 {
	value := math.Abs(n.perlin.Noise1D(offset+position)) / NoiseAmplitude()
	return floatutils.Clip(value, 0, 1)
}

// NoiseAmplitude returns the largest value the octaves of the noise can
// sum to, 1.875 for four octaves halving in amplitude
func NoiseAmplitude() float64 {
	var amplitude float64
	for i := int32(0); i < NoiseOctaves; i++ {
		amplitude += math.Pow(NoiseAlpha, -float64(i))
	}
	return amplitude
}
