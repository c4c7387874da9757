package vehicle

import "errors"

var ErrInvalidTuning = errors.New("invalid vehicle tuning")
