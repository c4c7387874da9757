package physics

import "math"

const (
	// allclose-style tolerances used when comparing velocities.
	absTolerance = 1e-8
	relTolerance = 1e-5
)

// Vec2 is an immutable 2D vector. All operations return new values.
type Vec2 struct{ X, Y float64 }

// V is shorthand for Vec2{X: x, Y: y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Position2() (x, y float64) { return v.X, v.Y }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Neg() Vec2            { return Vec2{-v.X, -v.Y} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Norm() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return o.Sub(v).Norm() }
func (v Vec2) IsZero() bool         { return v.X == 0 && v.Y == 0 }

// Normalized returns the unit vector pointing like v. The zero vector is
// returned unchanged.
func (v Vec2) Normalized() Vec2 {
	if v.IsZero() {
		return v
	}
	n := v.Norm()
	return Vec2{v.X / n, v.Y / n}
}

// Rotate turns v counter-clockwise by deg degrees.
func (v Vec2) Rotate(deg float64) Vec2 {
	s, c := math.Sincos(Radians(deg))
	return Vec2{c*v.X - s*v.Y, s*v.X + c*v.Y}
}

// Angle is the direction of v from the +X axis in degrees, in [0, 360).
func (v Vec2) Angle() float64 {
	return NormalizeDegrees(Degrees(math.Atan2(v.Y, v.X)))
}

// FromAngle is the unit vector for deg degrees.
func FromAngle(deg float64) Vec2 {
	s, c := math.Sincos(Radians(deg))
	return Vec2{c, s}
}

// ApproxEqual compares component-wise with the same absolute and relative
// tolerances numpy's allclose uses.
func ApproxEqual(a, b Vec2) bool {
	return closeTo(a.X, b.X) && closeTo(a.Y, b.Y)
}

// NearZero reports whether x is within the absolute tolerance of zero.
func NearZero(x float64) bool { return math.Abs(x) <= absTolerance }

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= absTolerance+relTolerance*math.Abs(b)
}

func Radians(deg float64) float64 { return deg * math.Pi / 180 }
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeDegrees wraps deg into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -tiny + 360 rounds to 360 in float64
	if deg >= 360 {
		deg -= 360
	}
	return deg
}
