package hillracing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func stateWith(values map[int]float64) *mat.VecDense {
	state := mat.NewVecDense(StateObservations, nil)
	for i, value := range values {
		state.SetVec(i, value)
	}
	return state
}

func TestDistanceReward(t *testing.T) {
	for _, preset := range []Preset{Soft, Aggressive} {
		task := NewDistance(preset, DefaultMaxStuckSteps, 0)
		task.registerEnv(&hillRacing{prevMaxDistance: 10})

		tests := []struct {
			name string
			x    float64
			want float64
		}{
			{"regressing", 9, preset.Reverse - 1},
			{"stationary", 10, preset.Idle},
			{"barely moving", 10.0005, preset.Idle},
			{"advancing", 11.5, 2.5},
		}

		for _, test := range tests {
			next := stateWith(map[int]float64{ChassisX: test.x})
			have := task.GetReward(nil, nil, next)
			if math.Abs(have-test.want) > 1e-12 {
				t.Errorf("%v %v: want(%v) have(%v)", preset.Name, test.name,
					test.want, have)
			}
		}
	}
}

func TestRewardSigns(t *testing.T) {
	for _, preset := range []Preset{Soft, Aggressive} {
		task := NewDistance(preset, DefaultMaxStuckSteps, 0)
		task.registerEnv(&hillRacing{prevMaxDistance: 50})

		for x := 40.0; x <= 60; x += 0.25 {
			reward := task.GetReward(nil, nil,
				stateWith(map[int]float64{ChassisX: x}))
			if x > 50.001 && reward <= 0 {
				t.Errorf("%v: advancing to %v rewarded %v", preset.Name, x,
					reward)
			}
			if x < 50 && reward >= 0 {
				t.Errorf("%v: regressing to %v rewarded %v", preset.Name, x,
					reward)
			}
		}
	}
}

func TestActionReward(t *testing.T) {
	preset := Aggressive

	tests := []struct {
		name        string
		actionSpace ActionSpace
		action      float64
		want        float64
	}{
		{"idle", Discrete3, 0, preset.Idle},
		{"gas", Discrete3, 1, 1},
		{"reverse", Discrete3, 2, preset.Reverse},
		{"gas only", Discrete2, 1, 1},
		{"small speed", ContinuousWheelSpeed, 0.2, preset.Idle},
		{"small negative speed", ContinuousWheelSpeed, -0.4, preset.Idle},
		{"forward speed", ContinuousWheelSpeed, 7, 1},
		{"backward speed", ContinuousWheelSpeed, -3, preset.Reverse},
	}

	for _, test := range tests {
		task := NewActionReward(preset, DefaultMaxStuckSteps, 0)
		task.registerEnv(&hillRacing{actionSpace: test.actionSpace})

		action := mat.NewVecDense(1, []float64{test.action})
		if have := task.GetReward(nil, action, nil); have != test.want {
			t.Errorf("%v: want(%v) have(%v)", test.name, test.want, have)
		}
	}
}

func TestWheelSpeedReward(t *testing.T) {
	preset := Soft
	task := NewWheelSpeed(preset, DefaultMaxStuckSteps, 0)

	tests := []struct {
		name        string
		rear, front float64
		want        float64
	}{
		{"idle", 0.5, -1, preset.Idle},
		{"forward", -30, -2, 1},
		{"backward", 3, 20, preset.Reverse},
		{"mixed", -3, 2, 0},
		{"one idle wheel forward", -0.5, -4, 1},
	}

	for _, test := range tests {
		next := stateWith(map[int]float64{
			RearWheelSpeed:  test.rear,
			FrontWheelSpeed: test.front,
		})
		if have := task.GetReward(nil, nil, next); have != test.want {
			t.Errorf("%v: want(%v) have(%v)", test.name, test.want, have)
		}
	}
}

func TestPresetByName(t *testing.T) {
	for _, want := range []Preset{Soft, Aggressive} {
		have, err := PresetByName(want.Name)
		if err != nil || have != want {
			t.Errorf("%v: want(%v) have(%v, %v)", want.Name, want, have, err)
		}
	}
	if _, err := PresetByName("gentle"); err == nil {
		t.Error("expected an error for an unknown preset")
	}
}

func TestNewBasePanicsWithoutStuckBudget(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("newBase did not panic")
		}
	}()
	newBase(Soft, 0, 0)
}

func TestAtGoal(t *testing.T) {
	task := NewDistance(Soft, DefaultMaxStuckSteps, 0)
	goal := float64(MaxScore) + SpawnX/Scale

	if task.AtGoal(stateWith(map[int]float64{ChassisX: goal - 1})) {
		t.Error("at goal before the end of the terrain")
	}
	if !task.AtGoal(stateWith(map[int]float64{ChassisX: goal + 0.1})) {
		t.Error("not at goal past the end of the terrain")
	}
}
