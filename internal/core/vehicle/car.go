// Package vehicle simulates a single top-down car: bicycle-model dynamics,
// body collision against track borders, ordered gate progress, a five-ray
// distance sensor and playback of recorded runs.
//
// A Car is not safe for concurrent use. Borders and gates passed in through
// Config are only ever read, so many cars may share one track.
package vehicle

import (
	"math"

	"github.com/zeusync/trackdrive/internal/core/replay"
	"github.com/zeusync/trackdrive/internal/core/systems/physics"
)

var _ physics.Oriented = (*Car)(nil)

// Mode is fixed when the car is created.
type Mode uint8

const (
	ModeDriven Mode = iota
	ModeReplayed
)

func (m Mode) String() string {
	switch m {
	case ModeDriven:
		return "driven"
	case ModeReplayed:
		return "replayed"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

type Status uint8

const (
	StatusRunning Status = iota
	StatusCrashed
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCrashed:
		return "crashed"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal reports whether no further physics will be applied.
func (s Status) Terminal() bool { return s != StatusRunning }

// Result is what one Update reports. Speed is only meaningful when
// HasSpeed is true; it is negative while the car reverses.
type Result struct {
	Mode   Mode
	Speed  float64
	Time   float64
	Status Status
}

func (r Result) HasSpeed() bool { return r.Mode == ModeDriven }

// Config describes where a car starts and what it drives on.
type Config struct {
	Start   physics.Pose
	Borders []physics.Segment
	Gates   []physics.Segment
	// Tuning defaults to DefaultTuning when left zero.
	Tuning Tuning
}

type Car struct {
	mode    Mode
	tuning  Tuning
	start   physics.Pose
	borders []physics.Segment
	gates   []physics.Segment
	log     *replay.Log

	pos          physics.Vec2
	heading      float64
	velocity     physics.Vec2
	accel        physics.Vec2
	steering     float64
	goingReverse float64
	alive        bool
	completed    bool
	nextGate     int
	elapsed      float64
	lastTimer    float64
	cursor       int
	sensors      [SensorCount]Reading
}

// NewDriven creates a car simulated from per-tick input.
func NewDriven(cfg Config) (*Car, error) {
	return newCar(cfg, ModeDriven, nil)
}

// NewReplayed creates a car that follows log instead of simulating. A nil
// log behaves like an empty one.
func NewReplayed(cfg Config, log *replay.Log) (*Car, error) {
	if log == nil {
		log = replay.New("")
	}
	return newCar(cfg, ModeReplayed, log)
}

func newCar(cfg Config, mode Mode, log *replay.Log) (*Car, error) {
	t := cfg.Tuning
	if t == (Tuning{}) {
		t = DefaultTuning()
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	// the first gate is appended again so the lap closes on the start line
	gates := make([]physics.Segment, len(cfg.Gates), len(cfg.Gates)+1)
	copy(gates, cfg.Gates)
	if len(gates) > 0 {
		gates = append(gates, gates[0])
	}

	c := &Car{
		mode:    mode,
		tuning:  t,
		start:   cfg.Start,
		borders: cfg.Borders,
		gates:   gates,
		log:     log,
	}
	c.Reset()
	return c, nil
}

// Reset puts the car back on its start pose with a fresh clock, keeping its
// track and replay log.
func (c *Car) Reset() {
	c.pos = c.start.Point()
	c.heading = c.start.Heading
	c.velocity = physics.Vec2{}
	c.accel = physics.Vec2{}
	c.steering = 0
	c.goingReverse = 0
	c.alive = true
	c.completed = false
	c.nextGate = 0
	c.elapsed = 0
	c.lastTimer = 0
	c.cursor = 0
	for i := range c.sensors {
		c.sensors[i] = Reading{Ray: physics.Segment{P1: c.pos, P2: c.pos}}
	}
}

// Update advances the car by dt seconds. The clock always advances; once the
// car is crashed or completed the reported time stays frozen.
func (c *Car) Update(in Input, dt float64) Result {
	c.elapsed += dt
	if c.mode == ModeReplayed {
		return c.playback()
	}

	if c.Status().Terminal() {
		return Result{Mode: ModeDriven, Time: c.lastTimer, Status: c.Status()}
	}

	c.step(in, dt)

	if c.crossesNextGate() {
		c.nextGate++
		if c.nextGate == len(c.gates) {
			c.completed = true
			return c.freeze()
		}
	}
	if c.crossesBorder() {
		c.alive = false
		return c.freeze()
	}

	c.lastTimer = round2(c.elapsed)
	c.sense()
	return Result{Mode: ModeDriven, Speed: c.Speed(), Time: c.lastTimer, Status: StatusRunning}
}

func (c *Car) freeze() Result {
	c.lastTimer = round2(c.elapsed)
	return Result{Mode: ModeDriven, Time: c.lastTimer, Status: c.Status()}
}

func (c *Car) Mode() Mode                    { return c.mode }
func (c *Car) Tuning() Tuning                { return c.tuning }
func (c *Car) Start() physics.Pose           { return c.start }
func (c *Car) Position() physics.Vec2        { return c.pos }
func (c *Car) Position2() (x, y float64)     { return c.pos.X, c.pos.Y }
func (c *Car) Heading() float64              { return c.heading }
func (c *Car) Velocity() physics.Vec2        { return c.velocity }
func (c *Car) GoingReverse() float64         { return c.goingReverse }
func (c *Car) Alive() bool                   { return c.alive }
func (c *Car) Completed() bool               { return c.completed }
func (c *Car) NextGate() int                 { return c.nextGate }
func (c *Car) Elapsed() float64              { return c.elapsed }
func (c *Car) Replay() *replay.Log           { return c.log }
func (c *Car) Sensors() [SensorCount]Reading { return c.sensors }

// Rotation is the heading in the clockwise-positive convention renderers use.
func (c *Car) Rotation() float64 { return -c.heading }

// GateCount includes the closing copy of the first gate.
func (c *Car) GateCount() int { return len(c.gates) }

// Speed is the velocity magnitude, negative while reversing.
func (c *Car) Speed() float64 {
	s := c.velocity.Norm()
	if c.goingReverse < 0 {
		s = -s
	}
	return s
}

func (c *Car) Status() Status {
	switch {
	case c.completed:
		return StatusCompleted
	case !c.alive:
		return StatusCrashed
	default:
		return StatusRunning
	}
}

// State is a value copy of the visible car state.
type State struct {
	Mode      Mode                 `json:"mode"`
	X         float64              `json:"x"`
	Y         float64              `json:"y"`
	Heading   float64              `json:"heading"`
	Speed     float64              `json:"speed"`
	Status    Status               `json:"status"`
	NextGate  int                  `json:"next_gate"`
	Time      float64              `json:"time"`
	Distances [SensorCount]float64 `json:"distances"`
}

func (c *Car) Snapshot() State {
	s := State{
		Mode:      c.mode,
		X:         c.pos.X,
		Y:         c.pos.Y,
		Heading:   c.heading,
		Status:    c.Status(),
		NextGate:  c.nextGate,
		Time:      c.lastTimer,
		Distances: c.Distances(),
	}
	if c.mode == ModeDriven {
		s.Speed = c.Speed()
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
