package track

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/geo/bearing"
	"github.com/rotblauer/trackplay/types/trackpoint"
)

// Track is one parsed GPX file: an ordered sequence of timestamped points.
// Points are sorted chronologically at ingestion and the track is never
// mutated once it has been handed to a session.
type Track struct {
	ID     conceptual.TrackID     `json:"id"`
	Name   string                 `json:"name"`
	Points trackpoint.TrackPoints `json:"points"`
	Color  string                 `json:"color"`
}

func (t *Track) Len() int {
	return len(t.Points)
}

func (t *Track) IsEmpty() bool {
	return t == nil || len(t.Points) == 0
}

// Earliest returns the time of the first point.
func (t *Track) Earliest() time.Time {
	if t.IsEmpty() {
		return time.Time{}
	}
	return t.Points[0].Time
}

// Latest returns the time of the last point.
func (t *Track) Latest() time.Time {
	if t.IsEmpty() {
		return time.Time{}
	}
	return t.Points[len(t.Points)-1].Time
}

func (t *Track) Duration() time.Duration {
	return t.Latest().Sub(t.Earliest())
}

func (t *Track) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(t.Points))
	for _, p := range t.Points {
		ls = append(ls, p.Point())
	}
	return ls
}

func (t *Track) Bound() orb.Bound {
	return t.LineString().Bound()
}

// Heading returns the true bearing travelled into point i,
// ie. from point i-1 to point i. The first point has heading 0.
func (t *Track) Heading(i int) float64 {
	if i <= 0 || i >= len(t.Points) {
		return 0
	}
	return bearing.TrueBearing(t.Points[i-1].Point(), t.Points[i].Point())
}

// Summary is a compact description of a track without its points.
type Summary struct {
	ID       conceptual.TrackID `json:"id"`
	Name     string             `json:"name"`
	Color    string             `json:"color"`
	Points   int                `json:"points"`
	Start    time.Time          `json:"start"`
	End      time.Time          `json:"end"`
	Duration string             `json:"duration"`
}

func (t *Track) Summary() Summary {
	return Summary{
		ID:       t.ID,
		Name:     t.Name,
		Color:    t.Color,
		Points:   t.Len(),
		Start:    t.Earliest(),
		End:      t.Latest(),
		Duration: t.Duration().String(),
	}
}

type Tracks []*Track

// TimeBounds returns the earliest and latest point times across all tracks.
// ok is false when there are no points at all.
func TimeBounds(tracks Tracks) (earliest, latest time.Time, ok bool) {
	for _, t := range tracks {
		if t.IsEmpty() {
			continue
		}
		if !ok || t.Earliest().Before(earliest) {
			earliest = t.Earliest()
		}
		if !ok || t.Latest().After(latest) {
			latest = t.Latest()
		}
		ok = true
	}
	return
}

// Bound returns the spatial bound of all tracks' points.
func Bound(tracks Tracks) (orb.Bound, bool) {
	var b orb.Bound
	ok := false
	for _, t := range tracks {
		if t.IsEmpty() {
			continue
		}
		if !ok {
			b = t.Bound()
			ok = true
			continue
		}
		b = b.Union(t.Bound())
	}
	return b, ok
}
