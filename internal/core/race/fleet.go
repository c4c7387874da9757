package race

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/trackdrive/internal/core/observability/log"
	"github.com/zeusync/trackdrive/internal/core/track"
	"github.com/zeusync/trackdrive/internal/core/vehicle"
	"github.com/zeusync/trackdrive/pkg/concurrent"
)

// Driver picks the input for car i before each tick. It is called from the
// goroutine that ticks that car.
type Driver func(i int, c *vehicle.Car) vehicle.Input

// Fleet is a set of independent driven cars sharing one track. Each car is
// ticked by its own goroutine; only the shared borders and gates are common
// and those are never written.
type Fleet struct {
	track   *track.Track
	cars    []*vehicle.Car
	ids     []string
	frames  []int
	workers int
	pubs    []publisher
	logger  log.Log
}

// NewFleet creates n cars on the start line. workers bounds the goroutines
// used per tick; zero means one per car.
func NewFleet(trk *track.Track, tuning vehicle.Tuning, n, workers int, opts ...Option) (*Fleet, error) {
	o := buildOptions(opts)
	f := &Fleet{
		track:   trk,
		cars:    make([]*vehicle.Car, n),
		ids:     make([]string, n),
		frames:  make([]int, n),
		pubs:    make([]publisher, n),
		workers: workers,
		logger:  o.logger.Named("fleet"),
	}
	for i := range n {
		car, err := vehicle.NewDriven(Config(trk, tuning))
		if err != nil {
			return nil, err
		}
		f.cars[i] = car
		f.ids[i] = uuid.NewString()
		f.pubs[i] = publisher{bus: o.bus, runID: f.ids[i], logger: f.logger}
	}
	return f, nil
}

func (f *Fleet) Cars() []*vehicle.Car { return f.cars }
func (f *Fleet) IDs() []string        { return f.ids }

// Reset puts every car back on the start line and rewinds frame counters.
func (f *Fleet) Reset() {
	concurrent.Mute(f.cars, f.workers, (*vehicle.Car).Reset)
	clear(f.frames)
}

// Step ticks every car once with its own input.
func (f *Fleet) Step(ctx context.Context, inputs []vehicle.Input, dt float64) ([]vehicle.Result, error) {
	if len(inputs) != len(f.cars) {
		return nil, fmt.Errorf("%w: %d inputs for %d cars", ErrInputCount, len(inputs), len(f.cars))
	}
	return f.tick(ctx, dt, func(i int, _ *vehicle.Car) vehicle.Input { return inputs[i] })
}

// Drive ticks the fleet with driver until every car has stopped or
// maxTicks ticks have run, and returns each car's last result.
func (f *Fleet) Drive(ctx context.Context, driver Driver, dt float64, maxTicks int) ([]vehicle.Result, error) {
	var (
		results []vehicle.Result
		err     error
	)
	for tick := 0; tick < maxTicks && !f.stopped(); tick++ {
		if results, err = f.tick(ctx, dt, driver); err != nil {
			return nil, err
		}
	}
	f.logger.Info("fleet stopped", log.Int("cars", len(f.cars)), log.Int("running", f.running()))
	return results, nil
}

func (f *Fleet) tick(ctx context.Context, dt float64, driver Driver) ([]vehicle.Result, error) {
	results := make([]vehicle.Result, len(f.cars))
	err := concurrent.ForEach(ctx, f.cars, f.workers, func(_ context.Context, i int, c *vehicle.Car) error {
		wasRunning := !c.Status().Terminal()
		results[i] = c.Update(driver(i, c), dt)
		if wasRunning {
			events := []string{EventFrame}
			switch results[i].Status {
			case vehicle.StatusCrashed:
				events = append(events, EventCrashed)
			case vehicle.StatusCompleted:
				events = append(events, EventLapCompleted)
			}
			f.pubs[i].publish(events, Telemetry{RunID: f.ids[i], Frame: f.frames[i], State: c.Snapshot()})
			f.frames[i]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (f *Fleet) stopped() bool { return f.running() == 0 }

func (f *Fleet) running() int {
	n := 0
	for _, c := range f.cars {
		if !c.Status().Terminal() {
			n++
		}
	}
	return n
}

// SensorDriver is a simple Driver that keeps the throttle open, steers
// toward the side with more room and brakes when the front ray gets short.
func SensorDriver(brakeDistance float64) Driver {
	return func(_ int, c *vehicle.Car) vehicle.Input {
		d := c.Distances()
		left := d[vehicle.SensorLeft] + d[vehicle.SensorFrontLeft]
		right := d[vehicle.SensorRight] + d[vehicle.SensorFrontRight]
		near := d[vehicle.SensorFront] > 0 && d[vehicle.SensorFront] < brakeDistance
		return vehicle.Input{
			Forward: !near,
			Brake:   near && c.Speed() > 100,
			Left:    left > right,
			Right:   right > left,
		}
	}
}
