package physics

import "math"

const (
	// parallelTolerance bounds the determinant below which two lines are
	// treated as parallel or coincident.
	parallelTolerance = 1e-9
	// boxSlack admits intersection points that sit on a segment endpoint.
	boxSlack = 1e-9
)

// Segment is a finite line segment. Endpoint order carries no meaning for
// intersection tests.
type Segment struct{ P1, P2 Vec2 }

// Seg is shorthand for a segment between (x1,y1) and (x2,y2).
func Seg(x1, y1, x2, y2 float64) Segment {
	return Segment{P1: Vec2{x1, y1}, P2: Vec2{x2, y2}}
}

func (s Segment) Len() float64   { return s.P1.Dist(s.P2) }
func (s Segment) Midpoint() Vec2 { return s.P1.Add(s.P2).Scale(0.5) }

// line is the infinite line through a segment in Ax + By = C form.
type line struct{ a, b, c float64 }

func (s Segment) line() line {
	a := s.P2.Y - s.P1.Y
	b := s.P1.X - s.P2.X
	return line{a: a, b: b, c: a*s.P1.X + b*s.P1.Y}
}

// boxContains reports whether p lies inside the axis-aligned bounding box
// of s, inclusive, with boxSlack tolerance. Because p is already known to
// lie on the segment's line this is equivalent to segment containment.
func (s Segment) boxContains(p Vec2) bool {
	minX, maxX := math.Min(s.P1.X, s.P2.X), math.Max(s.P1.X, s.P2.X)
	minY, maxY := math.Min(s.P1.Y, s.P2.Y), math.Max(s.P1.Y, s.P2.Y)
	return p.X >= minX-boxSlack && p.X <= maxX+boxSlack &&
		p.Y >= minY-boxSlack && p.Y <= maxY+boxSlack
}

// Intersect returns the crossing point of two finite segments. Parallel and
// coincident segments never intersect, even when they overlap.
func Intersect(s1, s2 Segment) (Vec2, bool) {
	l1, l2 := s1.line(), s2.line()
	det := l1.a*l2.b - l1.b*l2.a
	if math.Abs(det) <= parallelTolerance {
		return Vec2{}, false
	}
	p := Vec2{
		X: (l2.b*l1.c - l1.b*l2.c) / det,
		Y: (l1.a*l2.c - l2.a*l1.c) / det,
	}
	if s1.boxContains(p) && s2.boxContains(p) {
		return p, true
	}
	return Vec2{}, false
}

// Crosses reports whether s touches any of others.
func (s Segment) Crosses(others []Segment) bool {
	for _, o := range others {
		if _, ok := Intersect(s, o); ok {
			return true
		}
	}
	return false
}

// Nearest casts s against obstacles and returns the intersection closest to
// s.P1. ok is false when nothing was hit.
func (s Segment) Nearest(obstacles []Segment) (hit Vec2, dist float64, ok bool) {
	dist = math.Inf(1)
	for _, o := range obstacles {
		p, hitOK := Intersect(o, s)
		if !hitOK {
			continue
		}
		if d := s.P1.Dist(p); d < dist {
			hit, dist, ok = p, d, true
		}
	}
	return hit, dist, ok
}
