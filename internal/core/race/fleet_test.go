package race

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/trackdrive/internal/core/events/bus"
	"github.com/zeusync/trackdrive/internal/core/systems/physics"
	"github.com/zeusync/trackdrive/internal/core/track"
	"github.com/zeusync/trackdrive/internal/core/vehicle"
)

func flatOut(int, *vehicle.Car) vehicle.Input { return vehicle.Input{Forward: true} }

func TestFleetDrivesIndependentCars(t *testing.T) {
	b := bus.New()
	events := record(t, b, bus.AllEvents)
	trk := load(t, straight(), "tracks/straight")

	f, err := NewFleet(trk, vehicle.DefaultTuning(), 8, 3, WithBus(b))
	require.NoError(t, err)
	require.Len(t, f.Cars(), 8)

	results, err := f.Drive(context.Background(), flatOut, dt, 2000)
	require.NoError(t, err)
	require.Len(t, results, 8)

	// same inputs on the same track give the same run
	for i, c := range f.Cars() {
		assert.Equal(t, vehicle.StatusCompleted, results[i].Status)
		assert.Equal(t, results[0], results[i])
		assert.Equal(t, f.Cars()[0].Position(), c.Position())
	}
	assert.Equal(t, 8, events.count(EventLapCompleted))

	seen := map[string]bool{}
	for _, id := range f.IDs() {
		seen[id] = true
	}
	assert.Len(t, seen, 8)

	// the shared track is untouched
	assert.Equal(t, load(t, straight(), "tracks/straight"), trk)
}

func TestFleetStep(t *testing.T) {
	f, err := NewFleet(load(t, straight(), "tracks/straight"), vehicle.DefaultTuning(), 2, 0)
	require.NoError(t, err)

	_, err = f.Step(context.Background(), []vehicle.Input{{Forward: true}}, dt)
	require.ErrorIs(t, err, ErrInputCount)

	results, err := f.Step(context.Background(), []vehicle.Input{{Forward: true}, {Brake: true}}, dt)
	require.NoError(t, err)
	assert.Positive(t, results[0].Speed)
	assert.Negative(t, results[1].Speed)

	f.Reset()
	for _, c := range f.Cars() {
		assert.Equal(t, c.Start().Point(), c.Position())
		assert.Zero(t, c.Elapsed())
		assert.Equal(t, vehicle.StatusRunning, c.Status())
	}
}

func TestFleetCancelled(t *testing.T) {
	f, err := NewFleet(load(t, straight(), "tracks/straight"), vehicle.DefaultTuning(), 4, 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Drive(ctx, flatOut, dt, 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSensorDriverAvoidsWalls(t *testing.T) {
	trk := &track.Track{
		Dir: "box",
		Borders: track.Ring([]physics.Vec2{
			physics.V(-100, -100), physics.V(100, -100), physics.V(100, 100), physics.V(-100, 100),
		}),
		Start: physics.Pose{X: 60, Y: -40},
	}
	car, err := vehicle.NewDriven(Config(trk, vehicle.DefaultTuning()))
	require.NoError(t, err)
	car.Update(vehicle.Input{}, dt)

	// 40 units to the front wall, more room on the left
	in := SensorDriver(50)(0, car)
	assert.False(t, in.Forward)
	assert.True(t, in.Left)
	assert.False(t, in.Right)

	in = SensorDriver(10)(0, car)
	assert.True(t, in.Forward)
}
