package replay

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/trackdrive/pkg/encoding"
)

var _ encoding.Serializable[Log] = (*Log)(nil)

// Frame is one recorded tick of a run. Time is the elapsed run time at the
// end of the tick, not the tick length; the "dt" wire name is kept for
// compatibility with existing recordings.
type Frame struct {
	Index     int     `json:"frame"`
	Time      float64 `json:"dt"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Heading   float64 `json:"heading"`
	Alive     bool    `json:"alive"`
	Completed bool    `json:"completed"`
	Keys      Keys    `json:"keys"`
}

// Terminal reports whether the car had crashed or finished at this frame.
func (f Frame) Terminal() bool { return !f.Alive || f.Completed }

// Log is the append-only frame log of one run plus the track it was driven
// on. A run owns its Log; playback only reads it.
type Log struct {
	TrackPath string
	frames    []Frame
}

type wireLog struct {
	TrackPath *string `json:"track_path"`
	Frames    []Frame `json:"frames"`
}

func New(trackPath string) *Log {
	return &Log{TrackPath: trackPath}
}

// Add appends a frame. Frames must arrive in non-decreasing Time order; this
// is not checked.
func (l *Log) Add(f Frame) {
	l.frames = append(l.frames, f)
}

// Reset drops every frame but keeps the track path.
func (l *Log) Reset() {
	l.frames = l.frames[:0]
}

func (l *Log) Len() int { return len(l.frames) }

func (l *Log) Frame(i int) Frame { return l.frames[i] }

// Frames returns a copy of the recorded frames.
func (l *Log) Frames() []Frame {
	out := make([]Frame, len(l.frames))
	copy(out, l.frames)
	return out
}

// Last returns the final frame; ok is false for an empty log.
func (l *Log) Last() (Frame, bool) {
	if len(l.frames) == 0 {
		return Frame{}, false
	}
	return l.frames[len(l.frames)-1], true
}

// Advance moves cursor forward while the next frame is at least as close to
// t as the current one. The result is always a valid index for a non-empty
// log and never passes the last frame.
func (l *Log) Advance(cursor int, t float64) int {
	n := len(l.frames)
	if n == 0 {
		return 0
	}
	cursor = max(0, min(cursor, n-1))
	for cursor < n-1 &&
		math.Abs(t-l.frames[cursor].Time) >= math.Abs(t-l.frames[cursor+1].Time) {
		cursor++
	}
	return cursor
}

// Encode writes the log as indented JSON.
func (l *Log) Encode(w io.Writer) error {
	wl := wireLog{Frames: l.frames}
	if wl.Frames == nil {
		wl.Frames = []Frame{}
	}
	if l.TrackPath != "" {
		path := l.TrackPath
		wl.TrackPath = &path
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wl)
}

// Decode replaces the log contents with a JSON recording read from r.
func (l *Log) Decode(r io.Reader) error {
	var wl wireLog
	if err := json.NewDecoder(r).Decode(&wl); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedReplay, err)
	}
	if wl.Frames == nil {
		return fmt.Errorf("%w: no frames list", ErrMalformedReplay)
	}
	l.TrackPath = ""
	if wl.TrackPath != nil {
		l.TrackPath = *wl.TrackPath
	}
	l.frames = l.frames[:0]
	for _, f := range wl.Frames {
		if f.Keys == nil {
			f.Keys = Keys{}
		}
		f.Keys = f.Keys.Clone()
		l.frames = append(l.frames, f)
	}
	return nil
}

func (l *Log) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := l.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (l *Log) Deserialize(data []byte) error {
	return l.Decode(bytes.NewReader(data))
}

// Save writes the log to path, replacing any existing file.
func (l *Log) Save(path string) error {
	return encoding.WriteFile[Log](path, l)
}

// Load reads a recording from path.
func Load(path string) (*Log, error) {
	l := &Log{}
	if err := encoding.ReadFile[Log](path, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Checksum hashes the recorded trajectory (index, time, pose and status of
// every frame). Two runs with equal checksums followed the same path.
func (l *Log) Checksum() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 48)
	for _, f := range l.frames {
		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint64(buf, uint64(f.Index))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f.Time))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f.X))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f.Y))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f.Heading))
		buf = append(buf, boolByte(f.Alive), boolByte(f.Completed))
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}

// Tolerance is the time and pose difference two recordings of one run may
// show after re-simulation.
const Tolerance = 1e-6

// Diverges returns the first frame at which l and other disagree, or -1 when
// they follow the same run. Frame numbers and status must be equal; time,
// position and heading may differ by up to tol. Logs of different length
// diverge at the shorter length.
func (l *Log) Diverges(other *Log, tol float64) int {
	n := min(len(l.frames), len(other.frames))
	for i := range n {
		a, b := l.frames[i], other.frames[i]
		if a.Index != b.Index || a.Alive != b.Alive || a.Completed != b.Completed ||
			math.Abs(a.Time-b.Time) > tol ||
			math.Abs(a.X-b.X) > tol ||
			math.Abs(a.Y-b.Y) > tol ||
			headingDelta(a.Heading, b.Heading) > tol {
			return i
		}
	}
	if len(l.frames) != len(other.frames) {
		return n
	}
	return -1
}

// headingDelta is the unsigned angle between two headings in degrees.
func headingDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	return min(d, 360-d)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
