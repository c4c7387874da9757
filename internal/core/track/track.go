// Package track loads a track bundle: two closed border rings, an ordered
// list of checkpoint gates and a starting pose.
//
// A bundle is a directory holding
//
//	outer.txt, inner.txt   "x y" per line, one ring each
//	gates.txt              "x1 y1 x2 y2" per line, in crossing order
//	starting_position.txt  "x y heading"
//
// Border coordinates are read as floats and truncated to integers. Each
// ring is closed by an edge from its last point back to the first.
package track

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zeusync/trackdrive/internal/core/systems/physics"
)

const (
	OuterFile = "outer.txt"
	InnerFile = "inner.txt"
	GatesFile = "gates.txt"
	StartFile = "starting_position.txt"
)

// Track is immutable once loaded and may be shared by any number of cars.
type Track struct {
	Dir     string
	Borders []physics.Segment
	Gates   []physics.Segment
	Start   physics.Pose
}

// Finish returns the start/finish line, which is the first gate.
func (t *Track) Finish() physics.Segment {
	return t.Gates[0]
}

// Load reads the bundle in dir. Any missing or malformed file fails the load.
func Load(dir string) (*Track, error) {
	return LoadFS(os.DirFS(dir), dir)
}

// LoadFS reads a bundle from fsys; name is recorded as the track's Dir.
func LoadFS(fsys fs.FS, name string) (*Track, error) {
	outer, err := readRing(fsys, OuterFile)
	if err != nil {
		return nil, err
	}
	inner, err := readRing(fsys, InnerFile)
	if err != nil {
		return nil, err
	}
	gates, err := readGates(fsys)
	if err != nil {
		return nil, err
	}
	start, err := readStart(fsys)
	if err != nil {
		return nil, err
	}

	borders := make([]physics.Segment, 0, len(outer)+len(inner))
	borders = append(borders, outer...)
	borders = append(borders, inner...)

	return &Track{Dir: filepath.Clean(name), Borders: borders, Gates: gates, Start: start}, nil
}

// Ring closes points into segments, the first segment running from the last
// point to the first.
func Ring(points []physics.Vec2) []physics.Segment {
	segs := make([]physics.Segment, len(points))
	for i := range points {
		prev := points[(i+len(points)-1)%len(points)]
		segs[i] = physics.Segment{P1: prev, P2: points[i]}
	}
	return segs
}

func readRing(fsys fs.FS, name string) ([]physics.Segment, error) {
	var points []physics.Vec2
	err := scanFile(fsys, name, 2, func(v []float64) {
		points = append(points, physics.V(float64(int(v[0])), float64(int(v[1]))))
	})
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("%s: %w", name, ErrShortRing)
	}
	return Ring(points), nil
}

func readGates(fsys fs.FS) ([]physics.Segment, error) {
	var gates []physics.Segment
	err := scanFile(fsys, GatesFile, 4, func(v []float64) {
		gates = append(gates, physics.Seg(v[0], v[1], v[2], v[3]))
	})
	if err != nil {
		return nil, err
	}
	if len(gates) == 0 {
		return nil, fmt.Errorf("%s: %w", GatesFile, ErrNoGates)
	}
	return gates, nil
}

func readStart(fsys fs.FS) (physics.Pose, error) {
	var (
		pose  physics.Pose
		found bool
	)
	err := scanFile(fsys, StartFile, 3, func(v []float64) {
		if found {
			return
		}
		pose = physics.Pose{X: float64(int(v[0])), Y: float64(int(v[1])), Heading: float64(int(v[2]))}
		found = true
	})
	if err != nil {
		return physics.Pose{}, err
	}
	if !found {
		return physics.Pose{}, fmt.Errorf("%s: %w: empty file", StartFile, ErrMalformedLine)
	}
	return pose, nil
}

// scanFile calls fn with the first want numbers of every non-blank line.
func scanFile(fsys fs.FS, name string, want int, fn func([]float64)) error {
	f, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, ErrMissingFile)
		}
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()
	return scanNumbers(f, name, want, fn)
}

func scanNumbers(r io.Reader, name string, want int, fn func([]float64)) error {
	sc := bufio.NewScanner(r)
	values := make([]float64, want)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < want {
			return fmt.Errorf("%s:%d: %w: want %d numbers, got %d", name, lineNo, ErrMalformedLine, want, len(fields))
		}
		for i := range want {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s:%d: %w: %q", name, lineNo, ErrMalformedLine, fields[i])
			}
			values[i] = v
		}
		fn(values)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}
