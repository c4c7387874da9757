// Package race runs cars on a loaded track: live sessions that record a
// replay, viewers that play one back, re-simulation of recorded inputs and
// fleets of independent cars ticked in parallel.
package race

import (
	"github.com/google/uuid"

	"github.com/zeusync/trackdrive/internal/core/observability/log"
	"github.com/zeusync/trackdrive/internal/core/replay"
	"github.com/zeusync/trackdrive/internal/core/track"
	"github.com/zeusync/trackdrive/internal/core/vehicle"
)

// Config builds the car configuration for trk.
func Config(trk *track.Track, tuning vehicle.Tuning) vehicle.Config {
	return vehicle.Config{Start: trk.Start, Borders: trk.Borders, Gates: trk.Gates, Tuning: tuning}
}

// Session is one live run. It waits for the first key press, then records
// a frame per tick until the car crashes or completes the lap.
type Session struct {
	track  *track.Track
	car    *vehicle.Car
	log    *replay.Log
	pub    publisher
	logger log.Log
	fixed  bool

	started  bool
	finished bool
	clock    float64
}

func NewSession(trk *track.Track, tuning vehicle.Tuning, opts ...Option) (*Session, error) {
	car, err := vehicle.NewDriven(Config(trk, tuning))
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	s := &Session{
		track:  trk,
		car:    car,
		log:    replay.New(trk.Dir + "/"),
		logger: o.logger.Named("session"),
		fixed:  o.id != "",
	}
	s.pub = publisher{bus: o.bus, runID: o.id, logger: s.logger}
	if !s.fixed {
		s.pub.runID = uuid.NewString()
	}
	return s, nil
}

func (s *Session) ID() string          { return s.pub.runID }
func (s *Session) Car() *vehicle.Car   { return s.car }
func (s *Session) Replay() *replay.Log { return s.log }
func (s *Session) Track() *track.Track { return s.track }
func (s *Session) Started() bool       { return s.started }
func (s *Session) Finished() bool      { return s.finished }

// Tick advances the run by dt with the given key state. ok is false while
// the session waits for its first key press or after it has finished.
func (s *Session) Tick(keys replay.Keys, dt float64) (res vehicle.Result, ok bool) {
	if s.finished {
		return vehicle.Result{}, false
	}
	if !s.started {
		if !keys.Any() {
			return vehicle.Result{}, false
		}
		s.started = true
		s.logger.Info("run started", log.String("run", s.ID()), log.String("track", s.track.Dir))
	}

	gate := s.car.NextGate()
	res = s.car.Update(vehicle.InputFromKeys(keys), dt)
	s.clock += dt

	frame := replay.Frame{
		Index:     s.log.Len(),
		Time:      s.clock,
		X:         s.car.Position().X,
		Y:         s.car.Position().Y,
		Heading:   s.car.Heading(),
		Alive:     s.car.Alive(),
		Completed: s.car.Completed(),
		Keys:      keys.Clone(),
	}
	s.log.Add(frame)

	types := make([]string, 0, 3)
	if frame.Index == 0 {
		types = append(types, EventStarted)
	}
	if s.car.NextGate() > gate && !s.car.Completed() {
		types = append(types, EventGatePassed)
	}
	switch res.Status {
	case vehicle.StatusCompleted:
		types = append(types, EventLapCompleted)
	case vehicle.StatusCrashed:
		types = append(types, EventCrashed)
	}
	types = append(types, EventFrame)
	s.pub.publish(types, Telemetry{RunID: s.ID(), Frame: frame.Index, State: s.car.Snapshot()})

	if res.Status.Terminal() {
		s.finished = true
		s.logger.Info("run finished",
			log.String("run", s.ID()),
			log.String("status", res.Status.String()),
			log.Float64("time", res.Time),
			log.Int("frames", s.log.Len()))
	}
	return res, true
}

// Restart discards the recording and puts the car back on the start line.
// Unless the run id was fixed a new one is issued.
func (s *Session) Restart() {
	s.car.Reset()
	s.log.Reset()
	s.started = false
	s.finished = false
	s.clock = 0
	if !s.fixed {
		s.pub.runID = uuid.NewString()
	}
}
