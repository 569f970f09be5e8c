package hillracing

import (
	"fmt"

	"github.com/ByteArena/box2d"
)

// Wheel properties
const (
	WheelRadius         float64 = 17
	WheelAngularDamping float64 = 1.8

	// Suspension spring, anchored SpringLength wheel radii above the
	// wheel centre
	SpringLength       float64 = 3
	SpringFrequency    float64 = 70
	SpringDampingRatio float64 = 25
)

var (
	treadMaterial = material{density: 1, friction: 1.5, restitution: 0.1}
	rimMaterial   = material{density: 0.05, friction: 0.99, restitution: 0.2}
)

// Wheel is a wheel of a vehicle. A wheel is made of two bodies: the
// tread, which rolls on the grass layer of the terrain, and the rim,
// which collides with nothing and carries the suspension. The tread
// and rim are joined by the motorised drivetrain joint.
type Wheel struct {
	tread *box2d.B2Body
	rim   *box2d.B2Body

	drive      *box2d.B2RevoluteJoint
	suspension box2d.B2JointInterface
	spring     box2d.B2JointInterface

	radius    float64
	maxTorque float64
}

// newWheel creates a wheel of radius r centred at (x, y) in pixels and
// attaches it to chassis
func newWheel(world *box2d.B2World, parts registry, v *Vehicle, index int,
	x, y, r, maxTorque float64, chassis *box2d.B2Body) *Wheel {
	w := &Wheel{radius: r, maxTorque: maxTorque}

	w.tread = dynamicBody(world, x, y)
	treadShape := box2d.NewB2CircleShape()
	treadShape.M_radius = r / Scale
	attach(w.tread, treadShape, treadMaterial,
		collisionFilter(WheelCategory, WheelMask, 0))
	w.tread.SetAngularDamping(WheelAngularDamping)

	w.rim = dynamicBody(world, x, y)
	rimShape := box2d.NewB2CircleShape()
	rimShape.M_radius = r / Scale
	attach(w.rim, rimShape, rimMaterial, collisionFilter(0, 0, -1))

	centre := w.tread.GetPosition()

	drive := box2d.MakeB2RevoluteJointDef()
	drive.Initialize(w.tread, w.rim, centre)
	w.drive = asRevolute(world.CreateJoint(&drive))

	suspension := box2d.MakeB2PrismaticJointDef()
	suspension.Initialize(w.rim, chassis, centre, box2d.MakeB2Vec2(0, -1))
	w.suspension = world.CreateJoint(&suspension)

	spring := box2d.MakeB2DistanceJointDef()
	spring.Initialize(w.rim, chassis, worldPoint(x, y),
		worldPoint(x, y-SpringLength*r))
	spring.FrequencyHz = SpringFrequency
	spring.DampingRatio = SpringDampingRatio
	w.spring = world.CreateJoint(&spring)

	parts.register(w.tread, RoleWheel, v, index)
	parts.register(w.rim, RoleRim, v, index)

	return w
}

// Speed returns the angular speed of the drivetrain joint. Negative
// speeds drive the vehicle forward.
func (w *Wheel) Speed() float64 {
	return w.drive.GetJointSpeed()
}

// Position returns the centre of the wheel in physics units
func (w *Wheel) Position() box2d.B2Vec2 {
	return w.tread.GetPosition()
}

// Angle returns the rotation of the wheel tread in radians
func (w *Wheel) Angle() float64 {
	return w.tread.GetAngle()
}

// Radius returns the radius of the wheel in pixels
func (w *Wheel) Radius() float64 {
	return w.radius
}

// MotorEnabled returns whether the drivetrain motor is on
func (w *Wheel) MotorEnabled() bool {
	return w.drive.IsMotorEnabled()
}

// MotorSpeed returns the target speed of the drivetrain motor
func (w *Wheel) MotorSpeed() float64 {
	return w.drive.GetMotorSpeed()
}

func (w *Wheel) setMotor(enabled bool, speed float64) {
	w.drive.EnableMotor(enabled)
	if enabled {
		w.drive.SetMotorSpeed(speed)
		w.drive.SetMaxMotorTorque(w.maxTorque)
	}
}

func (w *Wheel) joints() []box2d.B2JointInterface {
	return []box2d.B2JointInterface{w.drive, w.suspension, w.spring}
}

func (w *Wheel) bodies() []*box2d.B2Body {
	return []*box2d.B2Body{w.tread, w.rim}
}

func asRevolute(joint box2d.B2JointInterface) *box2d.B2RevoluteJoint {
	revolute, ok := joint.(*box2d.B2RevoluteJoint)
	if !ok {
		panic(fmt.Sprintf("asRevolute: expected revolute joint but got %T",
			joint))
	}
	return revolute
}
