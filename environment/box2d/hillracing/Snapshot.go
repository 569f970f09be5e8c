package hillracing

import (
	"image/color"

	"github.com/ByteArena/box2d"
)

// Shape is a fixture of a vehicle in world pixel coordinates. Circles
// have a Centre and Radius, polygons have Points.
type Shape struct {
	Role   string       `json:"role"`
	Wheel  int          `json:"wheel"`
	Points [][2]float64 `json:"points,omitempty"`
	Centre [2]float64   `json:"centre"`
	Radius float64      `json:"radius,omitempty"`
	Angle  float64      `json:"angle"`
}

// Circle returns whether the shape is a circle
func (s Shape) Circle() bool {
	return s.Radius > 0
}

// Snapshot is a read-only copy of the drawable state of an environment
// in world pixel coordinates
type Snapshot struct {
	Terrain [][2]float64 `json:"terrain"`
	Shapes  []Shape      `json:"shapes"`
	Chassis [2]float64   `json:"chassis"`
	Shirt   color.RGBA   `json:"shirt"`
	Info    Info         `json:"info"`
}

// Snapshot returns the drawable state of the environment. Taking a
// snapshot never changes the state of the simulation.
func (h *hillRacing) Snapshot() Snapshot {
	samples := h.profile.Samples()
	terrain := make([][2]float64, len(samples))
	for i, vertex := range samples {
		terrain[i] = pixels(vertex)
	}

	var shapes []Shape
	for _, body := range h.vehicle.bodies() {
		owner := h.parts[body]
		if owner.role == RoleRim {
			continue
		}

		for fix := body.GetFixtureList(); fix != nil; fix = fix.M_next {
			shape := Shape{
				Role:  owner.role.String(),
				Wheel: owner.wheel,
				Angle: body.GetAngle(),
			}
			trans := body.M_xf

			switch s := fix.M_shape.(type) {
			case *box2d.B2CircleShape:
				shape.Centre = pixels(box2d.B2TransformVec2Mul(trans, s.M_p))
				shape.Radius = s.M_radius * Scale

			case *box2d.B2PolygonShape:
				shape.Points = make([][2]float64, 0, s.M_count)
				for i, vertex := range s.M_vertices {
					if i >= s.M_count {
						break
					}
					vertex = box2d.B2TransformVec2Mul(trans, vertex)
					shape.Points = append(shape.Points, pixels(vertex))
				}
				shape.Centre = pixels(body.GetPosition())

			default:
				continue
			}
			shapes = append(shapes, shape)
		}
	}

	return Snapshot{
		Terrain: terrain,
		Shapes:  shapes,
		Chassis: pixels(h.vehicle.Position()),
		Shirt:   h.vehicle.Shirt(),
		Info:    h.Info(),
	}
}

func pixels(v box2d.B2Vec2) [2]float64 {
	return [2]float64{v.X * Scale, v.Y * Scale}
}
