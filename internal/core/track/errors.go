package track

import "errors"

var (
	ErrMissingFile   = errors.New("track file missing")
	ErrMalformedLine = errors.New("malformed track line")
	ErrNoGates       = errors.New("track has no gates")
	ErrShortRing     = errors.New("border ring needs at least two points")
)
