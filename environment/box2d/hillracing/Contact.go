package hillracing

import (
	"github.com/ByteArena/box2d"
)

// Collision categories. Terrain is made of two layers: a grass layer
// which wheels and the driver collide with, and a dirt layer slightly
// below it which only the chassis collides with.
const (
	WheelCategory   uint16 = 0x0001
	ChassisCategory uint16 = 0x0002
	GrassCategory   uint16 = 0x0004
	DirtCategory    uint16 = 0x0008
	PersonCategory  uint16 = 0x0010

	WheelMask   uint16 = GrassCategory
	ChassisMask uint16 = DirtCategory
	GrassMask   uint16 = WheelCategory | PersonCategory
	DirtMask    uint16 = ChassisCategory
	PersonMask  uint16 = GrassCategory

	// The wall at the start of the world stops every part of the
	// vehicle
	WallCategory uint16 = GrassCategory | DirtCategory
	WallMask     uint16 = WheelCategory | ChassisCategory | PersonCategory
)

// BodyRole identifies the part of the simulation a body plays. The role
// of each body is stored as its user data and in the registry of the
// environment, and is used to dispatch contacts.
type BodyRole int

const (
	RoleGround BodyRole = iota
	RoleChassis
	RoleWheel
	RoleRim
	RoleHead
	RoleTorso
)

func (r BodyRole) String() string {
	switch r {
	case RoleGround:
		return "ground"
	case RoleChassis:
		return "car"
	case RoleWheel:
		return "wheel"
	case RoleRim:
		return "rim"
	case RoleHead:
		return "head"
	case RoleTorso:
		return "torso"
	}
	return "unknown"
}

// part records who owns a body. Terrain bodies have no owning vehicle.
// The wheel field is only meaningful for wheel and rim bodies and holds
// the index of the wheel on its vehicle.
type part struct {
	role    BodyRole
	vehicle *Vehicle
	wheel   int
}

// registry maps each body in a world to its owner so that contacts can
// be resolved without walking the joint graph.
type registry map[*box2d.B2Body]part

func (r registry) register(body *box2d.B2Body, role BodyRole, v *Vehicle,
	wheel int) {
	body.SetUserData(role)
	r[body] = part{role: role, vehicle: v, wheel: wheel}
}

func (r registry) remove(body *box2d.B2Body) {
	delete(r, body)
}

// contactDetector turns contacts between bodies into vehicle lifecycle
// events. A head touching the ground kills the driver. A wheel touching
// the ground marks that wheel as grounded until the contact ends.
type contactDetector struct {
	parts registry
}

func newContactDetector(parts registry) *contactDetector {
	return &contactDetector{parts}
}

// resolve returns the non-ground part of a contact between some body
// and the ground. If neither or both bodies are ground, ok is false.
func (c *contactDetector) resolve(contact box2d.B2ContactInterface) (part,
	bool) {
	a, okA := c.parts[contact.GetFixtureA().GetBody()]
	b, okB := c.parts[contact.GetFixtureB().GetBody()]
	if !okA || !okB {
		return part{}, false
	}

	if a.role == RoleGround {
		a, b = b, a
	}
	if b.role != RoleGround || a.role == RoleGround || a.vehicle == nil {
		return part{}, false
	}
	return a, true
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	p, ok := c.resolve(contact)
	if !ok {
		return
	}

	switch p.role {
	case RoleHead:
		p.vehicle.kill()
	case RoleWheel:
		p.vehicle.touchGround(p.wheel)
	}
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {
	p, ok := c.resolve(contact)
	if !ok {
		return
	}

	if p.role == RoleWheel {
		p.vehicle.leaveGround(p.wheel)
	}
}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
}
