package race

import (
	"fmt"

	"github.com/zeusync/trackdrive/internal/core/observability/log"
	"github.com/zeusync/trackdrive/internal/core/replay"
	"github.com/zeusync/trackdrive/internal/core/track"
	"github.com/zeusync/trackdrive/internal/core/vehicle"
)

// Viewer plays a recorded run back on its track.
type Viewer struct {
	track  *track.Track
	car    *vehicle.Car
	log    *replay.Log
	pub    publisher
	logger log.Log
	ticks  int
}

// OpenViewer loads the replay at path and the track it names. A non-empty
// trackDir overrides the recorded track path. A recording without frames
// has nothing to show and fails with replay.ErrEmptyReplay.
func OpenViewer(path, trackDir string, opts ...Option) (*Viewer, error) {
	l, err := replay.Load(path)
	if err != nil {
		return nil, err
	}
	if l.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", path, replay.ErrEmptyReplay)
	}
	if trackDir == "" {
		trackDir = l.TrackPath
	}
	if trackDir == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTrackPath)
	}
	trk, err := track.Load(trackDir)
	if err != nil {
		return nil, fmt.Errorf("load track for %s: %w", path, err)
	}
	return NewViewer(trk, l, opts...)
}

func NewViewer(trk *track.Track, l *replay.Log, opts ...Option) (*Viewer, error) {
	car, err := vehicle.NewReplayed(Config(trk, vehicle.DefaultTuning()), l)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	if o.id == "" {
		o.id = trk.Dir
	}
	v := &Viewer{track: trk, car: car, log: l, logger: o.logger.Named("viewer")}
	v.pub = publisher{bus: o.bus, runID: o.id, logger: v.logger}
	return v, nil
}

func (v *Viewer) Car() *vehicle.Car   { return v.car }
func (v *Viewer) Replay() *replay.Log { return v.log }
func (v *Viewer) Track() *track.Track { return v.track }

// Step advances playback by dt and publishes the shown frame.
func (v *Viewer) Step(dt float64) vehicle.Result {
	res := v.car.Update(vehicle.Input{}, dt)
	v.ticks++
	if f, ok := v.car.Frame(); ok {
		v.pub.publish([]string{EventFrame}, Telemetry{RunID: v.pub.runID, Frame: f.Index, State: v.car.Snapshot()})
	}
	return res
}

// Done reports whether playback has nothing more to show: the recorded car
// stopped, or the clock ran past the last frame.
func (v *Viewer) Done() bool {
	last, ok := v.log.Last()
	if !ok {
		return true
	}
	return v.car.Status().Terminal() || v.car.Elapsed() >= last.Time
}

// Rewind restarts playback from the first frame.
func (v *Viewer) Rewind() {
	v.car.Reset()
	v.ticks = 0
}

// Run steps until Done and returns the final result.
func (v *Viewer) Run(dt float64) vehicle.Result {
	res := vehicle.Result{Mode: vehicle.ModeReplayed}
	for !v.Done() {
		res = v.Step(dt)
	}
	v.logger.Info("playback finished",
		log.String("track", v.track.Dir),
		log.String("status", res.Status.String()),
		log.Float64("time", res.Time),
		log.Int("ticks", v.ticks))
	return res
}
