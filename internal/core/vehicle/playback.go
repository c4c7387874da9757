package vehicle

import (
	"github.com/zeusync/trackdrive/internal/core/replay"
	"github.com/zeusync/trackdrive/internal/core/systems/physics"
)

// playback copies the frame nearest to the elapsed time into the car. No
// physics or collision runs in this mode.
func (c *Car) playback() Result {
	if c.log.Len() == 0 {
		return Result{Mode: ModeReplayed, Status: c.Status()}
	}
	if c.Status().Terminal() {
		last, _ := c.log.Last()
		c.lastTimer = round2(last.Time)
		return Result{Mode: ModeReplayed, Time: c.lastTimer, Status: c.Status()}
	}

	c.cursor = c.log.Advance(c.cursor, c.elapsed)
	f := c.log.Frame(c.cursor)
	c.pos = physics.V(f.X, f.Y)
	c.heading = f.Heading
	c.alive = f.Alive
	c.completed = f.Completed
	c.lastTimer = round2(f.Time)
	return Result{Mode: ModeReplayed, Time: c.lastTimer, Status: c.Status()}
}

// Frame returns the log frame the car currently shows; ok is false before
// the first replayed tick or for driven cars.
func (c *Car) Frame() (replay.Frame, bool) {
	if c.mode != ModeReplayed || c.log.Len() == 0 || c.elapsed == 0 {
		return replay.Frame{}, false
	}
	return c.log.Frame(c.cursor), true
}
