package vehicle

import (
	"math"

	"github.com/zeusync/trackdrive/internal/core/systems/physics"
)

// step runs one physics tick: input forces, friction, integration and the
// bicycle steering update.
func (c *Car) step(in Input, dt float64) {
	c.accel = physics.Vec2{}
	c.applyInput(in)
	c.applyFriction()
	c.velocity = c.velocity.Add(c.accel.Scale(dt))
	c.steer(dt)
}

func (c *Car) applyInput(in Input) {
	c.steering = in.turn() * c.tuning.SteeringAngle

	forward := physics.FromAngle(c.heading)
	if in.Forward {
		c.accel = c.accel.Add(forward.Scale(c.tuning.EnginePower))
	}
	if in.Brake {
		c.accel = c.accel.Add(forward.Scale(c.tuning.Braking))
	}
}

// applyFriction stops a crawling car outright, otherwise adds linear
// friction and quadratic drag opposing the velocity.
func (c *Car) applyFriction() {
	speed := c.velocity.Norm()
	if speed < c.tuning.StopSpeed {
		c.velocity = physics.Vec2{}
		return
	}
	friction := c.velocity.Scale(-c.tuning.Friction)
	drag := c.velocity.Scale(-speed * c.tuning.Drag)
	c.accel = c.accel.Add(friction.Add(drag))
}

// steer moves the rear wheel with the velocity and the front wheel with the
// velocity turned by the steering angle. The car sits between the wheels and
// faces from rear to front; the velocity then slides toward that heading.
func (c *Car) steer(dt float64) {
	half := physics.FromAngle(c.heading).Scale(c.tuning.WheelBase / 2)
	rear := c.pos.Sub(half).Add(c.velocity.Scale(dt))
	front := c.pos.Add(half).Add(c.velocity.Rotate(c.steering).Scale(dt))

	c.pos = physics.Segment{P1: rear, P2: front}.Midpoint()
	heading := front.Sub(rear).Normalized()

	speed := c.velocity.Norm()
	traction := c.tuning.traction(speed)
	c.goingReverse = heading.Dot(c.velocity.Normalized())
	c.heading = heading.Angle()

	if speed <= 0 {
		return
	}
	switch {
	case c.goingReverse > 0:
		c.velocity = slide(c.velocity, heading.Scale(speed), traction)
	case c.goingReverse < 0:
		c.velocity = heading.Neg().Scale(math.Min(speed, c.tuning.MaxSpeedReverse))
	}
}

// slide blends v and ideal on the line through both endpoints. X is placed
// the traction fraction of the way from the smaller X to the larger one, so
// the result sits near whichever endpoint has the smaller X. Reached or
// axis-aligned targets are taken as-is.
func slide(v, ideal physics.Vec2, traction float64) physics.Vec2 {
	if physics.ApproxEqual(ideal, v) || physics.NearZero(ideal.X) || physics.NearZero(ideal.Y) {
		return ideal
	}
	if ideal.X == v.X {
		return physics.V(v.X, v.Y+traction*(ideal.Y-v.Y))
	}
	lo, hi := math.Min(v.X, ideal.X), math.Max(v.X, ideal.X)
	x := lo + traction*(hi-lo)
	slope := (ideal.Y - v.Y) / (ideal.X - v.X)
	return physics.V(x, v.Y+slope*(x-v.X))
}
