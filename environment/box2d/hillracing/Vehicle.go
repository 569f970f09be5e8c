package hillracing

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/hillracing/utils/floatutils"
)

// Vehicle properties. Lengths are in pixels.
const (
	ChassisWidth          float64 = 125
	ChassisHeight         float64 = 40
	ChassisAngularDamping float64 = 0.1

	// Wheel centres sit WheelInset radii in from the chassis ends
	WheelInset float64 = 1.2

	MotorSpeed          float64 = 10 // Multiples of π rad/s
	RotationTorque      float64 = 2
	RearMaxMotorTorque  float64 = 500
	FrontMaxMotorTorque float64 = 250

	// Seat belt joining the torso to the chassis
	BeltFrequency    float64 = 5
	BeltDampingRatio float64 = 0.1
	BeltSlack        float64 = 1.1

	// Number of consecutive steps with both wheels off the ground
	// that count as one unit of airtime
	AirtimeSteps int = 30
)

// Chassis fixtures in pixels, relative to the chassis centre
var (
	HullPoly = [][2]float64{
		{-ChassisWidth / 2, -ChassisHeight / 2},
		{ChassisWidth/4 + 5, -ChassisHeight / 2},
		{ChassisWidth / 2, -ChassisHeight/2 + 5},
		{ChassisWidth / 2, ChassisHeight / 2},
	}
	SpoilerPoly = [][2]float64{
		{ChassisWidth / 4, -ChassisHeight / 2},
		{ChassisWidth/4 - 15, -ChassisHeight/2 - 20},
		{ChassisWidth/4 - 5, -ChassisHeight/2 - 20},
		{ChassisWidth/4 + 10, -ChassisHeight / 2},
	}
	BumperPoly = [][2]float64{
		{ChassisWidth / 2, -ChassisHeight/2 + 5},
		{ChassisWidth/2 + 5, -ChassisHeight/2 + 8},
		{ChassisWidth/2 + 5, ChassisHeight/2 - 5},
		{ChassisWidth / 2, ChassisHeight / 2},
	}

	hullMaterial    = material{density: 1, friction: 0.5, restitution: 0.01}
	spoilerMaterial = material{density: 1, friction: 0.5, restitution: 0.01}
	bumperMaterial  = material{density: 1, friction: 0.1, restitution: 0.1}
)

// ErrIllegalAction is returned when an action is outside of the
// action space of the environment
var ErrIllegalAction = errors.New("illegal action")

// ErrSimulation is returned when the physics simulation produces
// non-finite body states
var ErrSimulation = errors.New("simulation diverged")

// Vehicle is a car with a chassis, two wheels, and a driver. All
// bodies and joints of a vehicle are created together when it spawns
// and destroyed together.
type Vehicle struct {
	chassis *box2d.B2Body
	wheels  [2]*Wheel // rear, front
	driver  *Driver

	seat box2d.B2JointInterface
	belt box2d.B2JointInterface

	origin box2d.B2Vec2 // Spawn point in pixels
	shirt  color.RGBA

	motorState     int
	maxDistance    float64
	dead           bool
	groundContacts [2]int

	stepsInAir     int
	airtimeCounter int
	totalAirtime   int

	destroyed bool
}

// spawnVehicle creates a vehicle with its chassis centred at (x, y) in
// pixels and registers all of its bodies
func spawnVehicle(world *box2d.B2World, parts registry, x, y float64,
	shirt color.RGBA) *Vehicle {
	v := &Vehicle{
		origin:      box2d.MakeB2Vec2(x, y),
		shirt:       shirt,
		maxDistance: x / Scale,
	}

	v.chassis = dynamicBody(world, x, y)
	chassisFilter := collisionFilter(ChassisCategory, ChassisMask, 0)
	attach(v.chassis, polygonShape(HullPoly), hullMaterial, chassisFilter)
	attach(v.chassis, polygonShape(SpoilerPoly), spoilerMaterial,
		chassisFilter)
	attach(v.chassis, polygonShape(BumperPoly), bumperMaterial,
		chassisFilter)
	v.chassis.SetAngularDamping(ChassisAngularDamping)
	parts.register(v.chassis, RoleChassis, v, 0)

	wheelX := ChassisWidth/2 - WheelRadius*WheelInset
	wheelY := y + ChassisHeight/2 + WheelRadius/4
	v.wheels[0] = newWheel(world, parts, v, 0, x-wheelX, wheelY, WheelRadius,
		RearMaxMotorTorque, v.chassis)
	v.wheels[1] = newWheel(world, parts, v, 1, x+wheelX, wheelY, WheelRadius,
		FrontMaxMotorTorque, v.chassis)

	v.driver = newDriver(world, parts, v, x, y)

	seat := box2d.MakeB2RevoluteJointDef()
	seat.Initialize(v.driver.torso, v.chassis, worldPoint(x, y))
	v.seat = world.CreateJoint(&seat)

	belt := box2d.MakeB2DistanceJointDef()
	belt.Initialize(v.driver.torso, v.chassis,
		worldPoint(x, y-PersonHeight*2/3),
		worldPoint(x+ChassisWidth/2, y-ChassisHeight/2))
	belt.FrequencyHz = BeltFrequency
	belt.DampingRatio = BeltDampingRatio
	belt.Length *= BeltSlack
	v.belt = world.CreateJoint(&belt)

	return v
}

// MotorOn turns on both wheel motors, driving forward or in reverse.
// Driving forward tilts the chassis back slightly, and switching from
// forward to reverse tilts it forward.
func (v *Vehicle) MotorOn(forward bool) {
	previous := v.motorState

	speed := MotorSpeed * math.Pi
	if forward {
		v.motorState = 1
		speed = -speed
		v.chassis.ApplyTorque(-RotationTorque, true)
	} else {
		v.motorState = -1
	}

	if previous+v.motorState == 0 && previous == 1 {
		v.chassis.ApplyTorque(float64(-v.motorState), true)
	}

	for _, wheel := range v.wheels {
		wheel.setMotor(true, speed)
	}
}

// MotorOff turns off both wheel motors. If the vehicle was driving
// forward, the chassis is tilted forward slightly.
func (v *Vehicle) MotorOff() {
	if v.motorState == 1 {
		v.chassis.ApplyTorque(RotationTorque, true)
	}
	v.motorState = 0

	for _, wheel := range v.wheels {
		wheel.setMotor(false, 0)
	}
}

// SetMotorSpeed turns on both wheel motors with a target speed of
// value·π rad/s. Positive values drive the vehicle forward. Values
// outside [MinContinuousAction, MaxContinuousAction] are rejected.
func (v *Vehicle) SetMotorSpeed(value float64) error {
	if math.IsNaN(value) || value < MinContinuousAction ||
		value > MaxContinuousAction {
		return fmt.Errorf("setMotorSpeed: %w: speed %v ∉ [%v, %v]",
			ErrIllegalAction, value, MinContinuousAction, MaxContinuousAction)
	}

	v.motorState = int(floatutils.Sign(value))
	for _, wheel := range v.wheels {
		wheel.setMotor(true, -value*math.Pi)
	}
	return nil
}

// Position returns the position of the chassis in physics units
func (v *Vehicle) Position() box2d.B2Vec2 {
	return v.chassis.GetPosition()
}

// Angle returns the angle of the chassis in radians
func (v *Vehicle) Angle() float64 {
	return v.chassis.GetAngle()
}

// AngleDegrees returns the heading of the chassis in degrees in
// [0, 360), measured counter-clockwise on screen
func (v *Vehicle) AngleDegrees() float64 {
	return floatutils.Wrap(-v.Angle()*180/math.Pi, 0, 360)
}

// WheelSpeeds returns the drivetrain speeds of the rear and front
// wheels
func (v *Vehicle) WheelSpeeds() [2]float64 {
	return [2]float64{v.wheels[0].Speed(), v.wheels[1].Speed()}
}

// OnGround returns whether the rear and front wheels touch the ground
func (v *Vehicle) OnGround() [2]bool {
	return [2]bool{v.groundContacts[0] > 0, v.groundContacts[1] > 0}
}

// Wheels returns the rear and front wheels
func (v *Vehicle) Wheels() [2]*Wheel {
	return v.wheels
}

// Driver returns the driver of the vehicle
func (v *Vehicle) Driver() *Driver {
	return v.driver
}

// Dead returns whether the driver has died. Once dead, a vehicle stays
// dead.
func (v *Vehicle) Dead() bool {
	return v.dead
}

// MaxDistance returns the furthest chassis x position reached in
// physics units
func (v *Vehicle) MaxDistance() float64 {
	return v.maxDistance
}

// Score returns the number of whole physics units the vehicle has
// advanced past its spawn point
func (v *Vehicle) Score() int {
	return int(math.Max(0, v.maxDistance-v.origin.X/Scale))
}

// Airtime returns the airtime of the last completed jump in units of
// AirtimeSteps steps
func (v *Vehicle) Airtime() int {
	return v.totalAirtime
}

// MotorState returns 1 when driving forward, -1 in reverse, and 0 when
// the motors are off
func (v *Vehicle) MotorState() int {
	return v.motorState
}

// Shirt returns the colour of the driver's shirt
func (v *Vehicle) Shirt() color.RGBA {
	return v.shirt
}

// Destroyed returns whether the vehicle has been removed from its world
func (v *Vehicle) Destroyed() bool {
	return v.destroyed
}

// JointAnchors returns the world anchors of every joint of the vehicle
// in construction order. Each joint contributes its anchor on body A
// followed by its anchor on body B.
func (v *Vehicle) JointAnchors() []box2d.B2Vec2 {
	joints := v.joints()
	anchors := make([]box2d.B2Vec2, 0, 2*len(joints))
	for _, joint := range joints {
		anchored, ok := joint.(anchoredJoint)
		if !ok {
			panic(fmt.Sprintf("jointAnchors: joint type %v has no anchors",
				joint.GetType()))
		}
		anchors = append(anchors, anchored.GetAnchorA(),
			anchored.GetAnchorB())
	}
	return anchors
}

// anchoredJoint is implemented by every concrete box2d joint type
type anchoredJoint interface {
	GetAnchorA() box2d.B2Vec2
	GetAnchorB() box2d.B2Vec2
}

func (v *Vehicle) kill() {
	v.dead = true
}

func (v *Vehicle) touchGround(wheel int) {
	v.groundContacts[wheel]++
}

func (v *Vehicle) leaveGround(wheel int) {
	if v.groundContacts[wheel] > 0 {
		v.groundContacts[wheel]--
	}
}

// update records the progress of the vehicle after a physics step. A
// vehicle whose chassis falls below the screen dies.
func (v *Vehicle) update() {
	if !v.dead {
		pos := v.Position()
		if pos.X > v.maxDistance {
			v.maxDistance = pos.X
		}
		if pos.Y*Scale > ScreenHeight {
			v.dead = true
		}
	}

	onGround := v.OnGround()
	if !onGround[0] && !onGround[1] {
		v.totalAirtime = 0
		v.stepsInAir++
		if v.stepsInAir >= AirtimeSteps {
			v.airtimeCounter++
			v.stepsInAir = 0
		}
	} else {
		v.totalAirtime = v.airtimeCounter
		v.airtimeCounter = 0
		v.stepsInAir = 0
	}
}

// validate returns an error if any body of the vehicle has a
// non-finite position or angle
func (v *Vehicle) validate() error {
	for _, body := range v.bodies() {
		pos := body.GetPosition()
		for _, value := range []float64{pos.X, pos.Y, body.GetAngle()} {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return fmt.Errorf("validate: %w: %v body at (%v, %v) with "+
					"angle %v", ErrSimulation, body.GetUserData(), pos.X,
					pos.Y, body.GetAngle())
			}
		}
	}
	return nil
}

// destroy removes all joints and then all bodies of the vehicle from
// world. Calling destroy more than once has no effect.
func (v *Vehicle) destroy(world *box2d.B2World, parts registry) {
	if v.destroyed {
		return
	}

	for _, joint := range v.joints() {
		world.DestroyJoint(joint)
	}
	for _, body := range v.bodies() {
		world.DestroyBody(body)
		parts.remove(body)
	}
	v.groundContacts = [2]int{}
	v.destroyed = true
}

func (v *Vehicle) joints() []box2d.B2JointInterface {
	joints := make([]box2d.B2JointInterface, 0, 10)
	for _, wheel := range v.wheels {
		joints = append(joints, wheel.joints()...)
	}
	joints = append(joints, v.driver.joints()...)
	return append(joints, v.seat, v.belt)
}

func (v *Vehicle) bodies() []*box2d.B2Body {
	bodies := []*box2d.B2Body{v.chassis}
	for _, wheel := range v.wheels {
		bodies = append(bodies, wheel.bodies()...)
	}
	return append(bodies, v.driver.bodies()...)
}

// material holds the surface properties of a fixture
type material struct {
	density     float64
	friction    float64
	restitution float64
}

func attach(body *box2d.B2Body, shape box2d.B2ShapeInterface, m material,
	filter box2d.B2Filter) {
	fix := box2d.MakeB2FixtureDef()
	fix.Shape = shape
	fix.Density = m.density
	fix.Friction = m.friction
	fix.Restitution = m.restitution
	fix.Filter = filter
	body.CreateFixtureFromDef(&fix)
}

func collisionFilter(category, mask uint16, group int16) box2d.B2Filter {
	filter := box2d.MakeB2Filter()
	filter.CategoryBits = category
	filter.MaskBits = mask
	filter.GroupIndex = group
	return filter
}

func dynamicBody(world *box2d.B2World, x, y float64) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_dynamicBody
	def.Position = worldPoint(x, y)
	def.Angle = 0
	return world.CreateBody(&def)
}

// polygonShape converts a polygon in pixels to a shape in physics units
func polygonShape(points [][2]float64) *box2d.B2PolygonShape {
	vertices := make([]box2d.B2Vec2, len(points))
	for i, point := range points {
		vertices[i] = worldPoint(point[0], point[1])
	}

	shape := box2d.NewB2PolygonShape()
	shape.Set(vertices, len(vertices))
	return shape
}

// worldPoint converts a point in pixels to physics units
func worldPoint(x, y float64) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(x/Scale, y/Scale)
}
