package hillracing

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/ByteArena/box2d"
)

func newTestWorld() (*box2d.B2World, registry) {
	return newWorld(), make(registry)
}

func TestSpawnVehicleCongruent(t *testing.T) {
	spawns := [][2]float64{{200, 300}, {500, 100}, {1234, -50}}

	var reference []box2d.B2Vec2
	for _, spawn := range spawns {
		world, parts := newTestWorld()
		v := spawnVehicle(world, parts, spawn[0], spawn[1], color.RGBA{})

		origin := v.Position()
		var offsets []box2d.B2Vec2
		for _, body := range v.bodies() {
			pos := body.GetPosition()
			offsets = append(offsets, box2d.MakeB2Vec2(pos.X-origin.X,
				pos.Y-origin.Y))
			if body.GetAngle() != 0 {
				t.Errorf("spawn %v: body %v has angle %v", spawn,
					body.GetUserData(), body.GetAngle())
			}
		}

		if reference == nil {
			reference = offsets
			continue
		}
		for i := range offsets {
			dx := math.Abs(offsets[i].X - reference[i].X)
			dy := math.Abs(offsets[i].Y - reference[i].Y)
			if dx > 1e-9 || dy > 1e-9 {
				t.Errorf("spawn %v: body %v offset want(%v) have(%v)", spawn,
					i, reference[i], offsets[i])
			}
		}
	}
}

func TestSpawnVehicleRegistersParts(t *testing.T) {
	world, parts := newTestWorld()
	v := spawnVehicle(world, parts, 200, 300, color.RGBA{R: 1, A: 255})

	want := map[BodyRole]int{
		RoleChassis: 1,
		RoleWheel:   2,
		RoleRim:     2,
		RoleHead:    1,
		RoleTorso:   1,
	}
	have := make(map[BodyRole]int)
	for body, p := range parts {
		have[p.role]++
		if p.vehicle != v {
			t.Errorf("%v registered to the wrong vehicle", p.role)
		}
		if role, ok := body.GetUserData().(BodyRole); !ok || role != p.role {
			t.Errorf("user data: want(%v) have(%v)", p.role,
				body.GetUserData())
		}
	}
	for role, n := range want {
		if have[role] != n {
			t.Errorf("%v bodies: want(%v) have(%v)", role, n, have[role])
		}
	}

	if len(v.JointAnchors()) != 20 {
		t.Errorf("joint anchors: want(20) have(%v)", len(v.JointAnchors()))
	}
	if v.Shirt() != (color.RGBA{R: 1, A: 255}) {
		t.Errorf("shirt: have(%v)", v.Shirt())
	}
}

func TestVehicleDestroy(t *testing.T) {
	world, parts := newTestWorld()
	v := spawnVehicle(world, parts, 200, 300, color.RGBA{})

	v.destroy(world, parts)
	if !v.Destroyed() {
		t.Error("vehicle not marked destroyed")
	}
	if len(parts) != 0 {
		t.Errorf("registry not emptied: %v entries left", len(parts))
	}

	// Destroying twice must not touch the world again
	v.destroy(world, parts)
}

func TestRespawnReproducesJointAnchors(t *testing.T) {
	world, parts := newTestWorld()
	first := spawnVehicle(world, parts, 200, 300, color.RGBA{})
	want := first.JointAnchors()
	first.destroy(world, parts)

	second := spawnVehicle(world, parts, 200, 300, color.RGBA{})
	have := second.JointAnchors()

	if len(have) != len(want) {
		t.Fatalf("anchors: want(%v) have(%v)", len(want), len(have))
	}
	for i := range want {
		if have[i] != want[i] {
			t.Errorf("anchor %v: want(%v) have(%v)", i, want[i], have[i])
		}
	}
}

func TestMotorCommands(t *testing.T) {
	world, parts := newTestWorld()
	v := spawnVehicle(world, parts, 200, 300, color.RGBA{})

	tests := []struct {
		name    string
		command func() error
		state   int
		enabled bool
		speed   float64
	}{
		{"gas", func() error { v.MotorOn(true); return nil }, 1, true,
			-MotorSpeed * math.Pi},
		{"reverse", func() error { v.MotorOn(false); return nil }, -1, true,
			MotorSpeed * math.Pi},
		{"idle", func() error { v.MotorOff(); return nil }, 0, false, 0},
		{"forward speed", func() error { return v.SetMotorSpeed(5) }, 1, true,
			-5 * math.Pi},
		{"backward speed", func() error { return v.SetMotorSpeed(-13) }, -1,
			true, 13 * math.Pi},
		{"hold", func() error { return v.SetMotorSpeed(0) }, 0, true, 0},
	}

	for _, test := range tests {
		if err := test.command(); err != nil {
			t.Fatalf("%v: %v", test.name, err)
		}
		if v.MotorState() != test.state {
			t.Errorf("%v: motor state want(%v) have(%v)", test.name,
				test.state, v.MotorState())
		}
		for i, wheel := range v.Wheels() {
			if wheel.MotorEnabled() != test.enabled {
				t.Errorf("%v: wheel %v motor enabled want(%v) have(%v)",
					test.name, i, test.enabled, wheel.MotorEnabled())
			}
			if test.enabled && math.Abs(wheel.MotorSpeed()-test.speed) > 1e-12 {
				t.Errorf("%v: wheel %v motor speed want(%v) have(%v)",
					test.name, i, test.speed, wheel.MotorSpeed())
			}
		}
	}
}

func TestSetMotorSpeedRejectsIllegalValues(t *testing.T) {
	world, parts := newTestWorld()
	v := spawnVehicle(world, parts, 200, 300, color.RGBA{})

	for _, value := range []float64{13.5, -20, math.NaN(), math.Inf(1)} {
		if err := v.SetMotorSpeed(value); !errors.Is(err, ErrIllegalAction) {
			t.Errorf("speed %v: want(%v) have(%v)", value, ErrIllegalAction,
				err)
		}
	}
	if v.MotorState() != 0 {
		t.Errorf("rejected speeds changed motor state to %v", v.MotorState())
	}
}

func TestVehicleUpdate(t *testing.T) {
	world, parts := newTestWorld()
	v := spawnVehicle(world, parts, 200, 300, color.RGBA{})

	if v.MaxDistance() != 200/Scale {
		t.Errorf("initial high-water mark: want(%v) have(%v)", 200/Scale,
			v.MaxDistance())
	}
	if v.Score() != 0 {
		t.Errorf("initial score: want(0) have(%v)", v.Score())
	}
	if v.AngleDegrees() != 0 {
		t.Errorf("initial angle: want(0) have(%v)", v.AngleDegrees())
	}

	// Airborne for two airtime units, then touching down
	for i := 0; i < 2*AirtimeSteps; i++ {
		v.update()
	}
	if v.Airtime() != 0 {
		t.Errorf("airtime while airborne: want(0) have(%v)", v.Airtime())
	}
	v.touchGround(0)
	v.update()
	if v.Airtime() != 2 {
		t.Errorf("airtime after landing: want(2) have(%v)", v.Airtime())
	}
	if ground := v.OnGround(); !ground[0] || ground[1] {
		t.Errorf("on ground: want([true false]) have(%v)", ground)
	}

	v.leaveGround(0)
	v.leaveGround(0)
	if ground := v.OnGround(); ground[0] {
		t.Error("wheel still on ground after leaving it")
	}

	v.kill()
	v.update()
	if !v.Dead() {
		t.Error("vehicle revived by update")
	}
}

func TestVehicleFallsToDeath(t *testing.T) {
	world, parts := newTestWorld()
	v := spawnVehicle(world, parts, 200, ScreenHeight+100, color.RGBA{})

	v.update()
	if !v.Dead() {
		t.Error("vehicle below the screen is alive")
	}
	if err := v.validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}
