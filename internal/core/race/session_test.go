package race

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/trackdrive/internal/core/events/bus"
	"github.com/zeusync/trackdrive/internal/core/observability/log"
	"github.com/zeusync/trackdrive/internal/core/replay"
	"github.com/zeusync/trackdrive/internal/core/track"
	"github.com/zeusync/trackdrive/internal/core/vehicle"
)

func drive(s *Session, keys replay.Keys, limit int) vehicle.Result {
	var last vehicle.Result
	for range limit {
		res, ok := s.Tick(keys, dt)
		if !ok {
			break
		}
		last = res
	}
	return last
}

func TestSessionWaitsForFirstKey(t *testing.T) {
	s, err := NewSession(load(t, straight(), "tracks/straight"), vehicle.DefaultTuning())
	require.NoError(t, err)

	for range 10 {
		_, ok := s.Tick(replay.KeysOf(), dt)
		assert.False(t, ok)
	}
	assert.False(t, s.Started())
	assert.Zero(t, s.Replay().Len())
	assert.Zero(t, s.Car().Elapsed())

	// any tracked key starts the run, even one that does not drive
	res, ok := s.Tick(replay.KeysOf(replay.KeySpace), dt)
	require.True(t, ok)
	assert.True(t, s.Started())
	assert.Equal(t, vehicle.StatusRunning, res.Status)
	assert.Equal(t, 1, s.Replay().Len())
}

func TestSessionRecordsCompletedLap(t *testing.T) {
	b := bus.New()
	events := record(t, b, bus.AllEvents)
	s, err := NewSession(load(t, straight(), "tracks/straight"), vehicle.DefaultTuning(), WithBus(b), WithRunID("run-1"))
	require.NoError(t, err)

	res := drive(s, replay.KeysOf(replay.KeyW), 1000)
	require.True(t, s.Finished())
	assert.Equal(t, vehicle.StatusCompleted, res.Status)

	l := s.Replay()
	assert.Equal(t, "tracks/straight/", l.TrackPath)
	last, ok := l.Last()
	require.True(t, ok)
	assert.True(t, last.Completed)
	assert.Equal(t, l.Len()-1, last.Index)
	assert.Equal(t, float64(l.Len())*dt, last.Time)
	assert.True(t, last.Keys.Pressed(replay.KeyW))
	assert.Len(t, last.Keys, len(replay.TrackedKeys))

	assert.Equal(t, 1, events.count(EventStarted))
	assert.Equal(t, 1, events.count(EventGatePassed))
	assert.Equal(t, 1, events.count(EventLapCompleted))
	assert.Zero(t, events.count(EventCrashed))
	assert.Equal(t, l.Len(), events.count(EventFrame))

	for _, e := range events.events {
		assert.Equal(t, "run-1", e.Source())
	}

	_, ok = s.Tick(replay.KeysOf(replay.KeyW), dt)
	assert.False(t, ok)
}

func TestSessionCrash(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	b := bus.New()
	events := record(t, b, EventCrashed)
	s, err := NewSession(load(t, deadEnd(), "tracks/dead"), vehicle.DefaultTuning(),
		WithBus(b), WithLogger(log.FromZap(zap.New(core))))
	require.NoError(t, err)

	res := drive(s, replay.KeysOf(replay.KeyW), 1000)
	assert.Equal(t, vehicle.StatusCrashed, res.Status)
	assert.Equal(t, 1, events.count(EventCrashed))

	last, _ := s.Replay().Last()
	assert.False(t, last.Alive)

	finished := logs.FilterMessage("run finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, "crashed", finished[0].ContextMap()["status"])
	assert.Equal(t, "session", finished[0].LoggerName)
}

func TestSessionRestart(t *testing.T) {
	s, err := NewSession(load(t, deadEnd(), "tracks/dead"), vehicle.DefaultTuning())
	require.NoError(t, err)
	first := s.ID()
	drive(s, replay.KeysOf(replay.KeyW), 1000)
	require.True(t, s.Finished())

	s.Restart()
	assert.NotEqual(t, first, s.ID())
	assert.False(t, s.Started())
	assert.False(t, s.Finished())
	assert.Zero(t, s.Replay().Len())
	assert.True(t, s.Car().Alive())
	assert.Equal(t, s.Track().Start.Point(), s.Car().Position())

	_, ok := s.Tick(replay.KeysOf(replay.KeyW), dt)
	assert.True(t, ok)
}

// weave records a run that steers a little so turning is part of it.
func weave(t *testing.T, trk *track.Track, step float64) *Session {
	t.Helper()
	s, err := NewSession(trk, vehicle.DefaultTuning())
	require.NoError(t, err)
	for i := 0; !s.Finished() && i < 1000; i++ {
		keys := replay.KeysOf(replay.KeyW)
		switch {
		case i%40 < 5:
			keys[replay.KeyA] = true
		case i%40 < 10:
			keys[replay.KeyD] = true
		}
		s.Tick(keys, step)
	}
	require.True(t, s.Finished())
	return s
}

func TestResimulateMatchesRecording(t *testing.T) {
	trk := load(t, straight(), "tracks/straight")
	s := weave(t, trk, dt)

	out, err := Resimulate(trk, s.Replay(), vehicle.DefaultTuning())
	require.NoError(t, err)
	assert.Equal(t, s.Replay().Frames(), out.Frames())

	v, err := Verify(trk, s.Replay(), vehicle.DefaultTuning())
	require.NoError(t, err)
	assert.True(t, v.Match())
	assert.Equal(t, s.Replay().Len(), v.Frames)

	tuned := vehicle.DefaultTuning()
	tuned.EnginePower = 700
	v, err = Verify(trk, s.Replay(), tuned)
	require.NoError(t, err)
	assert.False(t, v.Match())
	assert.GreaterOrEqual(t, v.Diverged, 0)
}

func TestResimulateSixtyHertzRecording(t *testing.T) {
	trk := load(t, straight(), "tracks/straight")
	s := weave(t, trk, 1.0/60)

	v, err := Verify(trk, s.Replay(), vehicle.DefaultTuning())
	require.NoError(t, err)
	assert.True(t, v.Match(), "diverged at frame %d", v.Diverged)
	assert.Equal(t, -1, v.Diverged)
	assert.Equal(t, s.Replay().Len(), v.Frames)

	results, err := VerifyAll(context.Background(), trk, []*replay.Log{s.Replay(), s.Replay()}, vehicle.DefaultTuning(), 2)
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Match())
	}
}
