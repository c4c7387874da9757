package vehicle

import "github.com/zeusync/trackdrive/internal/core/systems/physics"

// Direction names one of the five sensor rays.
type Direction uint8

const (
	SensorFront Direction = iota
	SensorLeft
	SensorRight
	SensorFrontLeft
	SensorFrontRight
	SensorCount
)

var sensorOffsets = [SensorCount]float64{
	SensorFront:      0,
	SensorLeft:       90,
	SensorRight:      -90,
	SensorFrontLeft:  45,
	SensorFrontRight: -45,
}

// Offset is the ray angle relative to the heading, in degrees.
func (d Direction) Offset() float64 { return sensorOffsets[d] }

func (d Direction) String() string {
	switch d {
	case SensorFront:
		return "front"
	case SensorLeft:
		return "left"
	case SensorRight:
		return "right"
	case SensorFrontLeft:
		return "front_left"
	case SensorFrontRight:
		return "front_right"
	default:
		return "unknown"
	}
}

// Reading is one sensor measurement. Ray runs from the car centre to the
// nearest border hit, or to the sentinel point when nothing was hit.
type Reading struct {
	Distance float64
	Ray      physics.Segment
}

// Distances returns the five readings' distances in Direction order.
func (c *Car) Distances() [SensorCount]float64 {
	var out [SensorCount]float64
	for i, r := range c.sensors {
		out[i] = r.Distance
	}
	return out
}

// sense casts every ray against the borders. Hits farther away than the
// sentinel point are ignored.
func (c *Car) sense() {
	sentinel := c.tuning.SensorSentinel
	limit := physics.Segment{P1: c.pos, P2: sentinel}.Len()
	for d := range SensorCount {
		dir := physics.FromAngle(c.heading + d.Offset())
		ray := physics.Segment{P1: c.pos, P2: c.pos.Add(dir.Scale(c.tuning.SensorRange))}

		end, dist := sentinel, limit
		if hit, hitDist, ok := ray.Nearest(c.borders); ok && hitDist < limit {
			end, dist = hit, hitDist
		}
		c.sensors[d] = Reading{Distance: dist, Ray: physics.Segment{P1: c.pos, P2: end}}
	}
}
