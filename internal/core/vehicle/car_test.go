package vehicle

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zeusync/trackdrive/internal/core/replay"
	"github.com/zeusync/trackdrive/internal/core/systems/physics"
)

const tick = 1.0 / 60

func driven(t require.TestingT, cfg Config) *Car {
	c, err := NewDriven(cfg)
	require.NoError(t, err)
	return c
}

func box(half float64) []physics.Segment {
	return []physics.Segment{
		physics.Seg(-half, -half, half, -half),
		physics.Seg(half, -half, half, half),
		physics.Seg(half, half, -half, half),
		physics.Seg(-half, half, -half, -half),
	}
}

func TestAccelerateFromRest(t *testing.T) {
	c := driven(t, Config{})

	res := c.Update(Input{Forward: true}, tick)
	require.True(t, res.HasSpeed())
	assert.Equal(t, StatusRunning, res.Status)

	// friction only engages above the stop speed, so the first tick is pure thrust
	v := c.Velocity()
	assert.InDelta(t, 800*tick, v.Norm(), 1e-9)
	assert.InDelta(t, 0, v.Y, 1e-9)
	assert.Greater(t, v.X, 0.0)
	assert.InDelta(t, 800*tick, res.Speed, 1e-9)
	assert.InDelta(t, 0, c.Heading(), 1e-9)
	assert.InDelta(t, 800*tick*tick, c.Position().X, 1e-9)

	first := v.Norm()
	res = c.Update(Input{Forward: true}, tick)
	assert.Greater(t, res.Speed, first)
	assert.Less(t, res.Speed, 2*first)
}

func TestUpdateReportsRoundedTime(t *testing.T) {
	c := driven(t, Config{})
	var res Result
	for range 7 {
		res = c.Update(Input{}, 0.013)
	}
	assert.Equal(t, 0.09, res.Time)
	assert.InDelta(t, 0.091, c.Elapsed(), 1e-12)
}

func TestDecaysToRestWithoutOscillation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		heading := rapid.Float64Range(0, 359.99).Draw(t, "heading")
		speed := rapid.Float64Range(5.5, 600).Draw(t, "speed")

		c := driven(t, Config{Start: physics.Pose{Heading: heading}})
		dir := physics.FromAngle(heading)
		c.velocity = dir.Scale(speed)

		prev := speed
		for i := 0; ; i++ {
			if i > 2000 {
				t.Fatalf("still moving at %v after %d ticks", c.Velocity().Norm(), i)
			}
			c.Update(Input{}, tick)
			v := c.Velocity()
			if v.Dot(dir) < 0 {
				t.Fatalf("velocity %v turned against the initial direction", v)
			}
			if v.Norm() > prev+1e-9 {
				t.Fatalf("speed grew from %v to %v", prev, v.Norm())
			}
			prev = v.Norm()
			if v.IsZero() {
				return
			}
		}
	})
}

func TestReverseIsCapped(t *testing.T) {
	c := driven(t, Config{})

	res := c.Update(Input{Brake: true}, tick)
	assert.InDelta(t, -450*tick, res.Speed, 1e-9)
	assert.Less(t, c.GoingReverse(), 0.0)

	for range 600 {
		res = c.Update(Input{Brake: true}, tick)
		require.GreaterOrEqual(t, res.Speed, -250-1e-9)
	}
	assert.InDelta(t, -250, res.Speed, 1e-6)
	assert.InDelta(t, 0, c.Heading(), 1e-6)
	assert.Less(t, c.Position().X, 0.0)
}

func TestSteeringTurnsHeading(t *testing.T) {
	c := driven(t, Config{})
	for range 30 {
		c.Update(Input{Forward: true, Left: true}, tick)
	}
	assert.Greater(t, c.Heading(), 0.0)
	assert.Less(t, c.Heading(), 180.0)
	assert.Equal(t, -c.Heading(), c.Rotation())

	c.Reset()
	for range 30 {
		c.Update(Input{Forward: true, Right: true}, tick)
	}
	assert.Greater(t, c.Heading(), 180.0)

	// opposing steering cancels
	c.Reset()
	for range 30 {
		c.Update(Input{Forward: true, Left: true, Right: true}, tick)
	}
	assert.InDelta(t, 0, c.Position().Y, 1e-6)
}

func TestSlide(t *testing.T) {
	cases := []struct {
		name           string
		v, ideal, want physics.Vec2
	}{
		// x is taken from the smaller end in both directions
		{"ideal left of current", physics.V(100, 0.5), physics.V(80, 60), physics.V(88, 0.5+(59.5/-20)*-12)},
		{"ideal right of current", physics.V(80, 60), physics.V(100, 0.5), physics.V(88, 60+(59.5/-20)*8)},
		{"increasing x", physics.V(10, 5), physics.V(20, 20), physics.V(14, 5+(15.0/10)*4)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := slide(tc.v, tc.ideal, 0.4)
			assert.InDelta(t, tc.want.X, got.X, 1e-9)
			assert.InDelta(t, tc.want.Y, got.Y, 1e-9)
		})
	}

	assert.Equal(t, physics.V(10, 10), slide(physics.V(10, 0), physics.V(10, 20), 0.5))
	assert.Equal(t, physics.V(7, 0), slide(physics.V(5, 5), physics.V(7, 0), 0.3))
	assert.Equal(t, physics.V(3, 4), slide(physics.V(3, 4.000000001), physics.V(3, 4), 0.3))
}

func TestTractionBands(t *testing.T) {
	tu := DefaultTuning()
	assert.Equal(t, 0.4, tu.traction(150))
	assert.Equal(t, 0.2, tu.traction(150.1))
	assert.Equal(t, 0.2, tu.traction(350))
	assert.Equal(t, 0.1, tu.traction(350.1))
}

func TestCrashOnAnyEdge(t *testing.T) {
	// at rest at the origin facing +X the body spans x in [-20,20], y in [-10,10]
	cases := map[Edge]physics.Segment{
		EdgeFront: physics.Seg(15, 0, 25, 0),
		EdgeBack:  physics.Seg(-25, 0, -15, 0),
		EdgeLeft:  physics.Seg(0, 5, 0, 15),
		EdgeRight: physics.Seg(0, -15, 0, -5),
	}
	for edge, border := range cases {
		t.Run(edge.String(), func(t *testing.T) {
			c := driven(t, Config{Borders: []physics.Segment{border}})
			for e, seg := range c.Edges() {
				_, hit := physics.Intersect(seg, border)
				assert.Equal(t, Edge(e) == edge, hit, "edge %s", Edge(e))
			}

			res := c.Update(Input{}, tick)
			assert.Equal(t, StatusCrashed, res.Status)
			assert.False(t, c.Alive())
			assert.Equal(t, 0.02, res.Time)
		})
	}
}

func TestCrashFreezesTime(t *testing.T) {
	c := driven(t, Config{Borders: []physics.Segment{physics.Seg(200, -100, 200, 100)}})

	var (
		crashes int
		frozen  Result
	)
	for range 600 {
		wasAlive := c.Alive()
		res := c.Update(Input{Forward: true}, tick)
		if wasAlive && !c.Alive() {
			crashes++
			frozen = res
		}
	}
	require.Equal(t, 1, crashes)
	assert.Equal(t, StatusCrashed, frozen.Status)
	assert.Zero(t, frozen.Speed)

	pos := c.Position()
	for range 10 {
		res := c.Update(Input{Forward: true}, tick)
		assert.Equal(t, frozen.Time, res.Time)
		assert.Equal(t, StatusCrashed, res.Status)
	}
	assert.Equal(t, pos, c.Position())
	assert.Greater(t, c.Elapsed(), frozen.Time)
}

func TestGateAdvancesOncePerCrossing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		heading := rapid.Float64Range(0, 359.99).Draw(t, "heading")
		tilt := rapid.Float64Range(-45, 45).Draw(t, "tilt")

		dir := physics.FromAngle(heading)
		across := physics.FromAngle(heading + 90 + tilt).Scale(50)
		mid := dir.Scale(100)
		far := dir.Scale(5000)
		gates := []physics.Segment{
			{P1: mid.Sub(across), P2: mid.Add(across)},
			{P1: far.Sub(across), P2: far.Add(across)},
		}

		c := driven(t, Config{Start: physics.Pose{Heading: heading}, Gates: gates})
		for range 120 {
			c.Update(Input{Forward: true}, tick)
			if c.NextGate() > 1 {
				t.Fatalf("next gate reached %d", c.NextGate())
			}
		}
		if c.NextGate() != 1 {
			t.Fatalf("gate not registered, car at %v", c.Position())
		}
		if along := c.Position().Dot(dir); along < 140 {
			t.Fatalf("car only travelled %v", along)
		}
	})
}

func TestStraightTrackCompletes(t *testing.T) {
	c := driven(t, Config{Gates: []physics.Segment{physics.Seg(100, -50, 100, 50)}})
	require.Equal(t, 2, c.GateCount())

	crossedAt, completedAt := -1, -1
	var done Result
	for i := range 300 {
		res := c.Update(Input{Forward: true}, tick)
		if crossedAt < 0 && c.NextGate() == 1 {
			crossedAt = i
		}
		if c.Completed() {
			completedAt = i
			done = res
			break
		}
	}
	require.GreaterOrEqual(t, crossedAt, 0)
	// the closing gate is the same line, still under the body on the next tick
	assert.Equal(t, crossedAt+1, completedAt)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, 2, c.NextGate())

	for range 5 {
		res := c.Update(Input{Forward: true}, tick)
		assert.Equal(t, done.Time, res.Time)
		assert.Equal(t, StatusCompleted, res.Status)
	}
}

func TestNoGatesNeverCompletes(t *testing.T) {
	c := driven(t, Config{})
	assert.Zero(t, c.GateCount())
	for range 120 {
		c.Update(Input{Forward: true}, tick)
	}
	assert.False(t, c.Completed())
	assert.True(t, c.Alive())
}

func TestGatesCopied(t *testing.T) {
	gates := []physics.Segment{physics.Seg(1, 1, 2, 2)}
	c := driven(t, Config{Gates: gates})
	gates[0] = physics.Seg(9, 9, 9, 9)
	assert.Equal(t, physics.Seg(1, 1, 2, 2), c.gates[0])
	assert.Equal(t, c.gates[0], c.gates[1])
	assert.Len(t, gates, 1)
}

func TestSensors(t *testing.T) {
	c := driven(t, Config{Borders: box(100)})
	c.Update(Input{}, tick)

	d := c.Distances()
	assert.InDelta(t, 100, d[SensorFront], 1e-6)
	assert.InDelta(t, 100, d[SensorLeft], 1e-6)
	assert.InDelta(t, 100, d[SensorRight], 1e-6)
	assert.InDelta(t, 100*math.Sqrt2, d[SensorFrontLeft], 1e-6)
	assert.InDelta(t, 100*math.Sqrt2, d[SensorFrontRight], 1e-6)

	front := c.Sensors()[SensorFront].Ray
	assert.InDelta(t, 100, front.P2.X, 1e-6)
	assert.InDelta(t, 0, front.P2.Y, 1e-6)
	assert.Equal(t, c.Position(), front.P1)
}

func TestSensorsSaturateAtSentinel(t *testing.T) {
	c := driven(t, Config{})
	c.Update(Input{}, tick)

	sentinel := physics.V(10000, 10000)
	for d, r := range c.Sensors() {
		assert.Equal(t, sentinel, r.Ray.P2, Direction(d).String())
		assert.InDelta(t, c.Position().Dist(sentinel), r.Distance, 1e-9)
	}
}

func TestDirectionOffsets(t *testing.T) {
	assert.Equal(t, 0.0, SensorFront.Offset())
	assert.Equal(t, 90.0, SensorLeft.Offset())
	assert.Equal(t, -90.0, SensorRight.Offset())
	assert.Equal(t, 45.0, SensorFrontLeft.Offset())
	assert.Equal(t, -45.0, SensorFrontRight.Offset())
	assert.Equal(t, "front_right", SensorFrontRight.String())
}

func TestReset(t *testing.T) {
	start := physics.Pose{X: 10, Y: -5, Heading: 30}
	c := driven(t, Config{Start: start, Borders: []physics.Segment{physics.Seg(150, -100, 150, 200)}})
	for range 300 {
		c.Update(Input{Forward: true}, tick)
	}
	require.False(t, c.Alive())

	c.Reset()
	assert.True(t, c.Alive())
	assert.Equal(t, StatusRunning, c.Status())
	assert.Equal(t, start.Point(), c.Position())
	assert.Equal(t, 30.0, c.Heading())
	assert.Zero(t, c.Elapsed())
	assert.Zero(t, c.NextGate())
	assert.True(t, c.Velocity().IsZero())
	for _, r := range c.Sensors() {
		assert.Equal(t, r.Ray.P1, r.Ray.P2)
	}

	res := c.Update(Input{}, tick)
	assert.Equal(t, StatusRunning, res.Status)
}

func TestInvalidTuningRejected(t *testing.T) {
	tu := DefaultTuning()
	tu.WheelBase = 0
	_, err := NewDriven(Config{Tuning: tu})
	require.ErrorIs(t, err, ErrInvalidTuning)
}

func TestSnapshot(t *testing.T) {
	c := driven(t, Config{})
	c.Update(Input{Brake: true}, tick)

	s := c.Snapshot()
	assert.Less(t, s.Speed, 0.0)
	assert.Equal(t, 0.02, s.Time)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"mode":"driven"`)
	assert.Contains(t, string(raw), `"status":"running"`)
}

func TestInputKeys(t *testing.T) {
	in := InputFromKeys(replay.KeysOf(replay.KeyW, replay.KeyD, replay.KeyUp))
	assert.Equal(t, Input{Forward: true, Right: true}, in)
	assert.Equal(t, in, InputFromKeys(in.Keys()))
	assert.Equal(t, -1.0, in.turn())
	assert.Equal(t, 0.0, Input{Left: true, Right: true}.turn())
	assert.False(t, in.Keys().Pressed(replay.KeyUp))
}
