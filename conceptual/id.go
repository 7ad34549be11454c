package conceptual

import (
	"errors"
	"strconv"
)

var ErrInvalidID = errors.New("ids are positive integers")

// TrackID identifies a loaded track within a session.
// Ids are assigned sequentially starting at 1; zero is never a valid id.
type TrackID int64

func (t TrackID) String() string {
	return strconv.FormatInt(int64(t), 10)
}

func (t TrackID) IsEmpty() bool {
	return t == 0
}

// ParseTrackID parses a decimal track id, eg. from a URL path variable.
func ParseTrackID(s string) (TrackID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	id := TrackID(n)
	if id.IsEmpty() || n < 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// MarkerID identifies a custom marker. Like TrackID, zero is never assigned.
type MarkerID int64

func (m MarkerID) IsEmpty() bool {
	return m == 0
}

func (m MarkerID) String() string {
	return strconv.FormatInt(int64(m), 10)
}

func ParseMarkerID(s string) (MarkerID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	id := MarkerID(n)
	if id.IsEmpty() || n < 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
