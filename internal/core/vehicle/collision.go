package vehicle

import "github.com/zeusync/trackdrive/internal/core/systems/physics"

// Edge indexes the four sides of the car body.
type Edge uint8

const (
	EdgeFront Edge = iota
	EdgeBack
	EdgeLeft
	EdgeRight
	EdgeCount
)

func (e Edge) String() string {
	switch e {
	case EdgeFront:
		return "front"
	case EdgeBack:
		return "back"
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	default:
		return "unknown"
	}
}

// Edges returns the body rectangle centred on the car and rotated by its
// heading.
func (c *Car) Edges() [EdgeCount]physics.Segment {
	front := physics.FromAngle(c.heading).Scale(c.tuning.BodyLength / 2)
	left := physics.FromAngle(c.heading + 90).Scale(c.tuning.BodyWidth / 2)
	right := physics.FromAngle(c.heading - 90).Scale(c.tuning.BodyWidth / 2)
	back := front.Neg()

	frontRight := c.pos.Add(front).Add(right)
	frontLeft := c.pos.Add(front).Add(left)
	backRight := c.pos.Add(back).Add(right)
	backLeft := c.pos.Add(back).Add(left)

	return [EdgeCount]physics.Segment{
		EdgeFront: {P1: frontRight, P2: frontLeft},
		EdgeBack:  {P1: backRight, P2: backLeft},
		EdgeLeft:  {P1: frontLeft, P2: backLeft},
		EdgeRight: {P1: frontRight, P2: backRight},
	}
}

// crossesNextGate tests the body against the next expected gate only.
func (c *Car) crossesNextGate() bool {
	if c.nextGate >= len(c.gates) {
		return false
	}
	gate := c.gates[c.nextGate]
	for _, edge := range c.Edges() {
		if _, ok := physics.Intersect(edge, gate); ok {
			return true
		}
	}
	return false
}

func (c *Car) crossesBorder() bool {
	for _, edge := range c.Edges() {
		if edge.Crosses(c.borders) {
			return true
		}
	}
	return false
}
