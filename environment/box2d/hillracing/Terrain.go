package hillracing

import (
	"errors"
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/hillracing/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

// Terrain generation constants. Lengths are in pixels unless otherwise
// stated.
const (
	Smoothness     int     = 15
	MinHeight      float64 = 30
	FlatLength     float64 = 500
	GrassThickness float64 = 5
	SpawnClearance float64 = 100
	SpawnSample    int     = 10

	// Terrain is rejected if the look-ahead window starting at any
	// sample has a cumulative drop larger than SteepnessThreshold
	// physics units
	SteepnessThreshold float64 = 5
	SteepnessLookahead int     = 10

	MaxGroundSeed      float64 = 100000
	MaxTerrainAttempts int     = 1000

	// Steepness increases linearly over the course of the terrain
	// between these values
	MinSteepness float64 = 130
	MaxSteepness float64 = 250
)

// ErrTerrainNotFound is returned when no terrain passing the steepness
// check could be generated within the allowed number of attempts
var ErrTerrainNotFound = errors.New("no traversable terrain found")

// Profile is a sequence of terrain height samples. Vertices are in
// physics units and end with two caps, (distance, ScreenHeight) and
// (0, ScreenHeight), which close the terrain into a loop.
type Profile struct {
	Vertices   []box2d.B2Vec2
	SpawnY     float64 // in pixels
	GroundSeed float64
	NoiseSeed  int64
	Difficulty float64
}

// GenerateProfile generates the terrain profile determined by the
// noise table, the ground seed, and the difficulty. GenerateProfile
// does not check whether the terrain is too steep.
func GenerateProfile(noise *Noise, groundSeed, difficulty float64) Profile {
	distance := int(GroundDistance)
	vertices := make([]box2d.B2Vec2, 0, distance/Smoothness+3)

	steepnessRange := r1.Interval{Min: MinSteepness, Max: MaxSteepness}
	distanceRange := r1.Interval{Min: 0, Max: GroundDistance}
	heightRange := r1.Interval{Min: 0, Max: 200}
	noiseRange := r1.Interval{Min: 0, Max: 1}

	for i := 0; i < distance; i += Smoothness {
		x := float64(i)
		steepness := floatutils.Remap(x, distanceRange, steepnessRange)
		maxHeight := difficulty + floatutils.Remap(steepness, heightRange,
			r1.Interval{Min: 0, Max: 320})

		var bonus float64
		noised := noise.Sample(groundSeed, (x-FlatLength)/(700-steepness))
		if x < FlatLength {
			// Flat spawn plateau, sloping gently down towards the wall
			noised = noise.Sample(groundSeed, 0)
			bonus = (FlatLength - x) / 25
		}

		height := floatutils.Remap(noised, noiseRange,
			r1.Interval{Min: MinHeight, Max: maxHeight})
		vertices = append(vertices, box2d.MakeB2Vec2(x, ScreenHeight-height+bonus))
	}
	vertices = append(vertices,
		box2d.MakeB2Vec2(GroundDistance, ScreenHeight),
		box2d.MakeB2Vec2(0, ScreenHeight),
	)

	spawnY := vertices[SpawnSample].Y - SpawnClearance

	for i := range vertices {
		vertices[i].X /= Scale
		vertices[i].Y /= Scale
	}

	return Profile{
		Vertices:   vertices,
		SpawnY:     spawnY,
		GroundSeed: groundSeed,
		NoiseSeed:  noise.Seed(),
		Difficulty: difficulty,
	}
}

// GenerateTerrain generates profiles until one passes the steepness
// check. Each attempt draws a new noise table and ground seed from src.
// If no traversable profile is found in maxAttempts attempts,
// ErrTerrainNotFound is returned.
func GenerateTerrain(src rand.Source, difficulty float64,
	maxAttempts int) (Profile, error) {
	seeds := distuv.Uniform{Min: 0, Max: MaxGroundSeed, Src: src}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		noise := NewNoise(int64(src.Uint64() >> 1))
		profile := GenerateProfile(noise, seeds.Rand(), difficulty)

		if !profile.TooSteep() {
			return profile, nil
		}
	}
	return Profile{}, fmt.Errorf("generateTerrain: %w after %v attempts "+
		"with difficulty %v", ErrTerrainNotFound, maxAttempts, difficulty)
}

// Samples returns the height samples of the profile without the end
// caps. The x coordinates of samples strictly increase.
func (p Profile) Samples() []box2d.B2Vec2 {
	if len(p.Vertices) < 2 {
		return nil
	}
	return p.Vertices[:len(p.Vertices)-2]
}

// Positions returns the y coordinates of n vertices starting at the
// first vertex whose x coordinate is at least x, taking every skip-th
// vertex. If fewer than n vertices remain, the last y coordinate is
// repeated. If no vertex lies at or beyond x, nil is returned.
func (p Profile) Positions(x float64, n, skip int) []float64 {
	positions := make([]float64, 0, n)
	for i := range p.Vertices {
		if p.Vertices[i].X < x {
			continue
		}

		limit := skip * n
		if remaining := len(p.Vertices) - i; remaining < limit {
			limit = remaining
		}
		for j := 0; j < limit; j += skip {
			positions = append(positions, p.Vertices[i+j].Y)
		}
		break
	}

	if len(positions) == 0 {
		return nil
	}
	for len(positions) < n {
		positions = append(positions, positions[len(positions)-1])
	}
	return positions
}

// TooSteep returns whether any look-ahead window of the profile has a
// cumulative decrease in y coordinate above SteepnessThreshold
func (p Profile) TooSteep() bool {
	for _, vertex := range p.Vertices {
		window := p.Positions(vertex.X, SteepnessLookahead, 1)

		var drop float64
		for i := 1; i < len(window); i++ {
			if d := window[i-1] - window[i]; d > 0 {
				drop += d
			}
		}
		if drop > SteepnessThreshold {
			return true
		}
	}
	return false
}

// HeightAt returns the y coordinate of the terrain surface at x by
// linearly interpolating between samples. Outside of the sampled range
// the nearest sample is used.
func (p Profile) HeightAt(x float64) float64 {
	samples := p.Samples()
	if len(samples) == 0 {
		return ScreenHeight / Scale
	}
	if x <= samples[0].X {
		return samples[0].Y
	}

	for i := 1; i < len(samples); i++ {
		if samples[i].X >= x {
			return floatutils.Remap(x,
				r1.Interval{Min: samples[i-1].X, Max: samples[i].X},
				r1.Interval{Min: samples[i-1].Y, Max: samples[i].Y})
		}
	}
	return samples[len(samples)-1].Y
}

// terrain is the static collision geometry built from a Profile
type terrain struct {
	dirt  *box2d.B2Body
	grass *box2d.B2Body
	wall  *box2d.B2Body
}

// newTerrain adds the dirt and grass edge chains of the profile and an
// invisible wall at x = 0 to the world
func newTerrain(world *box2d.B2World, parts registry, p Profile) *terrain {
	t := &terrain{}

	groundDef := box2d.MakeB2BodyDef()
	groundDef.Type = box2d.B2BodyType.B2_staticBody
	groundDef.Position.Set(0, 0)

	t.dirt = world.CreateBody(&groundDef)
	t.grass = world.CreateBody(&groundDef)

	offset := GrassThickness / Scale
	for i := 1; i < len(p.Vertices); i++ {
		v1, v2 := p.Vertices[i-1], p.Vertices[i]
		addEdge(t.dirt, v1, v2, DirtCategory, DirtMask)
		addEdge(t.grass,
			box2d.MakeB2Vec2(v1.X, v1.Y-offset),
			box2d.MakeB2Vec2(v2.X, v2.Y-offset),
			GrassCategory, GrassMask)
	}

	wallDef := box2d.MakeB2BodyDef()
	wallDef.Type = box2d.B2BodyType.B2_staticBody
	wallDef.Position.Set(0, 0)
	t.wall = world.CreateBody(&wallDef)

	wallShape := box2d.NewB2PolygonShape()
	wallShape.SetAsBox(4, 10000)

	wallFix := box2d.MakeB2FixtureDef()
	wallFix.Shape = wallShape
	wallFix.Friction = 0.99
	wallFix.Filter.CategoryBits = WallCategory
	wallFix.Filter.MaskBits = WallMask
	t.wall.CreateFixtureFromDef(&wallFix)

	parts.register(t.dirt, RoleGround, nil, 0)
	parts.register(t.grass, RoleGround, nil, 0)
	parts.register(t.wall, RoleGround, nil, 0)

	return t
}

func addEdge(body *box2d.B2Body, v1, v2 box2d.B2Vec2, category,
	mask uint16) {
	edge := box2d.NewB2EdgeShape()
	edge.Set(v1, v2)

	fix := box2d.MakeB2FixtureDef()
	fix.Shape = edge
	fix.Friction = 0.99
	fix.Restitution = 0.1
	fix.Filter.CategoryBits = category
	fix.Filter.MaskBits = mask

	body.CreateFixtureFromDef(&fix)
}

// destroy removes the terrain bodies from the world
func (t *terrain) destroy(world *box2d.B2World, parts registry) {
	for _, body := range t.bodies() {
		world.DestroyBody(body)
		parts.remove(body)
	}
}

func (t *terrain) bodies() []*box2d.B2Body {
	return []*box2d.B2Body{t.dirt, t.grass, t.wall}
}
