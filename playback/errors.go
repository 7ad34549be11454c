package playback

import "errors"

var (
	ErrInvalidSpeed       = errors.New("speed must be a positive finite number")
	ErrMalformedTimeRange = errors.New("earliest time is after latest time")
)
