package hillracing

import (
	"github.com/ByteArena/box2d"
)

// Driver dimensions in pixels
const (
	PersonWidth  float64 = 20
	PersonHeight float64 = 40
)

var (
	torsoMaterial = material{density: 0.002, friction: 0.01, restitution: 0.01}
	headMaterial  = material{density: 0.001, friction: 0.01, restitution: 0.01}
)

// Driver is the ragdoll sitting in a vehicle. Its head and torso are
// joined at the neck by a revolute joint and a distance joint that
// stops the neck from stretching.
type Driver struct {
	head  *box2d.B2Body
	torso *box2d.B2Body

	neck       box2d.B2JointInterface
	neckSpring box2d.B2JointInterface
}

// newDriver creates a driver seated at (x, y) in pixels. The torso
// stands above the seat and the head above the torso.
func newDriver(world *box2d.B2World, parts registry, v *Vehicle,
	x, y float64) *Driver {
	d := &Driver{}

	d.torso = dynamicBody(world, x, y-PersonHeight/2)
	torsoShape := box2d.NewB2PolygonShape()
	torsoShape.SetAsBox(PersonWidth/2/Scale, PersonHeight/Scale)
	attach(d.torso, torsoShape, torsoMaterial,
		collisionFilter(PersonCategory, PersonMask, 0))

	headY := y - (PersonHeight + PersonWidth)
	d.head = dynamicBody(world, x, headY)
	headShape := box2d.NewB2CircleShape()
	headShape.M_radius = PersonWidth / Scale
	attach(d.head, headShape, headMaterial,
		collisionFilter(PersonCategory, PersonMask, 0))

	neck := box2d.MakeB2RevoluteJointDef()
	neck.Initialize(d.head, d.torso, worldPoint(x, y-PersonHeight))
	d.neck = world.CreateJoint(&neck)

	neckSpring := box2d.MakeB2DistanceJointDef()
	neckSpring.Initialize(d.head, d.torso, worldPoint(x, headY),
		worldPoint(x, y))
	d.neckSpring = world.CreateJoint(&neckSpring)

	parts.register(d.torso, RoleTorso, v, 0)
	parts.register(d.head, RoleHead, v, 0)

	return d
}

// Head returns the position of the driver's head in physics units
func (d *Driver) Head() box2d.B2Vec2 {
	return d.head.GetPosition()
}

// Torso returns the position of the driver's torso in physics units
func (d *Driver) Torso() box2d.B2Vec2 {
	return d.torso.GetPosition()
}

func (d *Driver) joints() []box2d.B2JointInterface {
	return []box2d.B2JointInterface{d.neck, d.neckSpring}
}

func (d *Driver) bodies() []*box2d.B2Body {
	return []*box2d.B2Body{d.head, d.torso}
}
