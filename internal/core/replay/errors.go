package replay

import "errors"

var (
	ErrMalformedReplay = errors.New("malformed replay")
	ErrEmptyReplay     = errors.New("replay has no frames")
)
