package race

import (
	"context"

	"github.com/zeusync/trackdrive/internal/core/replay"
	"github.com/zeusync/trackdrive/internal/core/track"
	"github.com/zeusync/trackdrive/internal/core/vehicle"
	"github.com/zeusync/trackdrive/pkg/concurrent"
)

// Resimulate drives a fresh car with the keys recorded in l, using the gaps
// between frame times as tick lengths, and records the new trajectory with
// the original timestamps. Recovered tick lengths can differ from the
// recorded ones in the last bit, so compare the logs with Diverges rather
// than by checksum.
func Resimulate(trk *track.Track, l *replay.Log, tuning vehicle.Tuning) (*replay.Log, error) {
	car, err := vehicle.NewDriven(Config(trk, tuning))
	if err != nil {
		return nil, err
	}
	out := replay.New(l.TrackPath)
	prev := 0.0
	for i := range l.Len() {
		f := l.Frame(i)
		car.Update(vehicle.InputFromKeys(f.Keys), f.Time-prev)
		prev = f.Time

		pos := car.Position()
		out.Add(replay.Frame{
			Index:     f.Index,
			Time:      f.Time,
			X:         pos.X,
			Y:         pos.Y,
			Heading:   car.Heading(),
			Alive:     car.Alive(),
			Completed: car.Completed(),
			Keys:      f.Keys.Clone(),
		})
	}
	return out, nil
}

// Verification compares a recording with its re-simulation. Diverged is the
// first frame that differs beyond replay.Tolerance, or -1. The checksums are
// informational; they only agree when every tick length was exact.
type Verification struct {
	Original    uint64
	Resimulated uint64
	Frames      int
	Diverged    int
}

func (v Verification) Match() bool { return v.Diverged < 0 }

func Verify(trk *track.Track, l *replay.Log, tuning vehicle.Tuning) (Verification, error) {
	out, err := Resimulate(trk, l, tuning)
	if err != nil {
		return Verification{}, err
	}
	return Verification{
		Original:    l.Checksum(),
		Resimulated: out.Checksum(),
		Frames:      l.Len(),
		Diverged:    l.Diverges(out, replay.Tolerance),
	}, nil
}

// VerifyAll re-simulates every log on trk in parallel.
func VerifyAll(ctx context.Context, trk *track.Track, logs []*replay.Log, tuning vehicle.Tuning, workers int) ([]Verification, error) {
	return concurrent.Map(ctx, logs, workers, func(_ context.Context, l *replay.Log) (Verification, error) {
		return Verify(trk, l, tuning)
	})
}
