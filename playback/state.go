package playback

import (
	"encoding/json"
	"time"
)

// State is the observable playback state.
// CurrentTime is zero (unset) if and only if no tracks are loaded.
type State struct {
	CurrentTime     time.Time
	EarliestTime    time.Time
	LatestTime      time.Time
	IsPlaying       bool
	SpeedMultiplier float64
}

// HasTracks reports whether the clock is bounded by a loaded track set.
func (s State) HasTracks() bool {
	return !s.CurrentTime.IsZero()
}

// AtEnd reports whether the current time sits on the latest time.
func (s State) AtEnd() bool {
	return s.HasTracks() && s.CurrentTime.Equal(s.LatestTime)
}

// Progress is the fraction of the time range already played, in [0, 1].
func (s State) Progress() float64 {
	if !s.HasTracks() {
		return 0
	}
	span := s.LatestTime.Sub(s.EarliestTime)
	if span <= 0 {
		return 1
	}
	return float64(s.CurrentTime.Sub(s.EarliestTime)) / float64(span)
}

type instantJSON struct {
	Time       time.Time `json:"time"`
	UnixMillis int64     `json:"unix_ms"`
}

func newInstantJSON(t time.Time) *instantJSON {
	if t.IsZero() {
		return nil
	}
	return &instantJSON{Time: t.UTC(), UnixMillis: t.UnixMilli()}
}

type stateJSON struct {
	Current  *instantJSON `json:"current"`
	Earliest *instantJSON `json:"earliest"`
	Latest   *instantJSON `json:"latest"`
	Playing  bool         `json:"playing"`
	Speed    float64      `json:"speed"`
	Progress float64      `json:"progress"`
}

// MarshalJSON encodes unset instants as null.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		Current:  newInstantJSON(s.CurrentTime),
		Earliest: newInstantJSON(s.EarliestTime),
		Latest:   newInstantJSON(s.LatestTime),
		Playing:  s.IsPlaying,
		Speed:    s.SpeedMultiplier,
		Progress: s.Progress(),
	})
}
