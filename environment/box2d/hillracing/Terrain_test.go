package hillracing

import (
	"errors"
	"math"
	"testing"

	"github.com/ByteArena/box2d"
	"golang.org/x/exp/rand"
)

func TestGenerateTerrainValid(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		profile, err := GenerateTerrain(rand.NewSource(seed),
			DefaultDifficulty, MaxTerrainAttempts)
		if err != nil {
			t.Fatalf("seed %v: %v", seed, err)
		}

		if profile.TooSteep() {
			t.Errorf("seed %v: accepted terrain is too steep", seed)
		}

		samples := profile.Samples()
		if len(samples) != len(profile.Vertices)-2 {
			t.Fatalf("seed %v: expected two end caps", seed)
		}
		for i := 1; i < len(samples); i++ {
			if samples[i].X <= samples[i-1].X {
				t.Fatalf("seed %v: x not increasing at sample %v", seed, i)
			}
		}

		caps := profile.Vertices[len(samples):]
		bottom := ScreenHeight / Scale
		if caps[0].X != GroundDistance/Scale || caps[0].Y != bottom ||
			caps[1].X != 0 || caps[1].Y != bottom {
			t.Errorf("seed %v: unexpected end caps %v", seed, caps)
		}

		// Without the bonus, the plateau is a single noise sample scaled
		// by a maximum height which only drifts with the steepness
		var plateau []float64
		for _, sample := range samples {
			x := sample.X * Scale
			if x >= FlatLength {
				break
			}
			plateau = append(plateau, sample.Y*Scale-(FlatLength-x)/25)
		}
		for _, height := range plateau {
			if math.Abs(height-plateau[0]) > plateauDrift+1e-6 {
				t.Errorf("seed %v: plateau drifts from %v to %v", seed,
					plateau[0], height)
				break
			}
		}

		wantSpawn := samples[SpawnSample].Y*Scale - SpawnClearance
		if math.Abs(profile.SpawnY-wantSpawn) > 1e-6 {
			t.Errorf("seed %v: spawn y want(%v) have(%v)", seed, wantSpawn,
				profile.SpawnY)
		}
	}
}

// plateauDrift is the most the maximum terrain height changes over the
// spawn plateau, in pixels
const plateauDrift = 320.0 / 200 * (MaxSteepness - MinSteepness) *
	FlatLength / GroundDistance

func TestGenerateTerrainDeterministic(t *testing.T) {
	p1, err := GenerateTerrain(rand.NewSource(42), DefaultDifficulty, 10)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := GenerateTerrain(rand.NewSource(42), DefaultDifficulty, 10)
	if err != nil {
		t.Fatal(err)
	}

	if p1.GroundSeed != p2.GroundSeed || p1.NoiseSeed != p2.NoiseSeed {
		t.Fatalf("seeds differ: %v/%v vs %v/%v", p1.GroundSeed, p1.NoiseSeed,
			p2.GroundSeed, p2.NoiseSeed)
	}
	for i := range p1.Vertices {
		if p1.Vertices[i] != p2.Vertices[i] {
			t.Fatalf("vertex %v differs: %v vs %v", i, p1.Vertices[i],
				p2.Vertices[i])
		}
	}
}

func TestGenerateTerrainGivesUp(t *testing.T) {
	_, err := GenerateTerrain(rand.NewSource(1), 1e6, 3)
	if !errors.Is(err, ErrTerrainNotFound) {
		t.Errorf("want(%v) have(%v)", ErrTerrainNotFound, err)
	}
}

func profileFromHeights(heights ...float64) Profile {
	vertices := make([]box2d.B2Vec2, len(heights))
	for i, y := range heights {
		vertices[i] = box2d.MakeB2Vec2(float64(i), y)
	}
	return Profile{Vertices: vertices}
}

func TestPositions(t *testing.T) {
	p := profileFromHeights(0, 1, 2, 3, 4, 5)

	tests := []struct {
		name    string
		x       float64
		n, skip int
		want    []float64
	}{
		{"from start", 0, 3, 1, []float64{0, 1, 2}},
		{"between samples", 1.5, 2, 1, []float64{2, 3}},
		{"skip", 0, 3, 2, []float64{0, 2, 4}},
		{"padded", 4, 4, 1, []float64{4, 5, 5, 5}},
		{"beyond end", 10, 3, 1, nil},
	}

	for _, test := range tests {
		have := p.Positions(test.x, test.n, test.skip)
		if len(have) != len(test.want) {
			t.Errorf("%v: want(%v) have(%v)", test.name, test.want, have)
			continue
		}
		for i := range have {
			if have[i] != test.want[i] {
				t.Errorf("%v: want(%v) have(%v)", test.name, test.want, have)
				break
			}
		}
	}
}

func TestTooSteep(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    bool
	}{
		{"flat", profileFromHeights(10, 10, 10, 10, 10, 10), false},
		{"increasing y", profileFromHeights(0, 2, 4, 6, 8, 10, 12), false},
		{"small decrease", profileFromHeights(10, 9, 8, 7, 6, 5), false},
		{"large decrease", profileFromHeights(10, 8, 6, 4, 2, 0), true},
		{"single jump", profileFromHeights(20, 20, 14, 14), true},
		{"drops in separate windows", profileFromHeights(
			10, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 4), false},
	}

	for _, test := range tests {
		if have := test.profile.TooSteep(); have != test.want {
			t.Errorf("%v: want(%v) have(%v)", test.name, test.want, have)
		}
	}
}

func TestHeightAt(t *testing.T) {
	p := profileFromHeights(0, 2, 2, 6)
	p.Vertices = append(p.Vertices, box2d.MakeB2Vec2(3, 24), box2d.MakeB2Vec2(0, 24))

	tests := []struct {
		x, want float64
	}{
		{-1, 0},
		{0.5, 1},
		{1.5, 2},
		{2.25, 3},
		{5, 6},
	}

	for _, test := range tests {
		if have := p.HeightAt(test.x); math.Abs(have-test.want) > 1e-12 {
			t.Errorf("x = %v: want(%v) have(%v)", test.x, test.want, have)
		}
	}
}
