package floatutils

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

func TestRemap(t *testing.T) {
	from := r1.Interval{Min: 0, Max: 200}
	to := r1.Interval{Min: 0, Max: 320}

	tests := []struct {
		value, want float64
	}{
		{0, 0},
		{100, 160},
		{200, 320},
		{250, 320},
		{-10, 0},
	}

	for _, test := range tests {
		if have := Remap(test.value, from, to); math.Abs(have-test.want) > 1e-12 {
			t.Errorf("Remap(%v): want(%v) have(%v)", test.value, test.want,
				have)
		}
	}
}

func TestRemapDecreasingTarget(t *testing.T) {
	have := Remap(0.5, r1.Interval{Min: 0, Max: 1},
		r1.Interval{Min: 30, Max: -10})
	if have != 10 {
		t.Errorf("want(10) have(%v)", have)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		value, want float64
	}{
		{0, 0},
		{360, 0},
		{-90, 270},
		{725, 5},
	}

	for _, test := range tests {
		if have := Wrap(test.value, 0, 360); math.Abs(have-test.want) > 1e-9 {
			t.Errorf("Wrap(%v): want(%v) have(%v)", test.value, test.want,
				have)
		}
	}
}

func TestClipAndSign(t *testing.T) {
	if Clip(5, -1, 1) != 1 || Clip(-5, -1, 1) != -1 || Clip(0.5, -1, 1) != 0.5 {
		t.Error("Clip returned a value outside of its bounds")
	}
	if Sign(-3) != -1 || Sign(2) != 1 || Sign(0) != 0 {
		t.Error("Sign returned an incorrect value")
	}
}
