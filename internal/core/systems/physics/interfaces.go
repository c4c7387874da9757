package physics

// Lightweight physics abstractions for the 2D track plane.
// Everything here is plain float64 math over value types so that the same
// sequence of inputs always reproduces the same trajectory.

// Positioned is anything with a location on the track plane.
type Positioned interface {
	Position2() (x, y float64)
}

// Oriented is a Positioned body with a heading in degrees from +X.
type Oriented interface {
	Positioned
	Heading() float64
}

// Pose is a position plus heading in degrees.
type Pose struct {
	X, Y, Heading float64
}

func (p Pose) Position2() (x, y float64) { return p.X, p.Y }

// Point returns the position part of the pose.
func (p Pose) Point() Vec2 { return Vec2{X: p.X, Y: p.Y} }
