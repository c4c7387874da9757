package race

import "errors"

var (
	ErrNoTrackPath = errors.New("replay does not name a track")
	ErrInputCount  = errors.New("input count does not match fleet size")
)
