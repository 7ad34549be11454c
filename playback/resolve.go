package playback

import (
	"sort"
	"time"

	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/types/track"
	"github.com/rotblauer/trackplay/types/trackpoint"
)

// NotStarted is the index of a track whose first point is after the current time.
const NotStarted = -1

// IndexMap maps each track to the index of its latest point at or before the current time.
// Maps are rebuilt whole and never mutated once published.
type IndexMap map[conceptual.TrackID]int

// Started reports whether the track has a point at or before the current time.
func (m IndexMap) Started(id conceptual.TrackID) bool {
	i, ok := m[id]
	return ok && i != NotStarted
}

func (m IndexMap) Equal(other IndexMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ResolveIndex returns the highest i with points[i].Time <= at, or NotStarted.
// Points must be sorted by time. Equal times resolve to the last of them.
func ResolveIndex(points trackpoint.TrackPoints, at time.Time) int {
	if at.IsZero() {
		return NotStarted
	}
	return sort.Search(len(points), func(i int) bool {
		return points[i].Time.After(at)
	}) - 1
}

// ResolveIndices resolves every track against at.
func ResolveIndices(tracks track.Tracks, at time.Time) IndexMap {
	m := make(IndexMap, len(tracks))
	for _, t := range tracks {
		m[t.ID] = ResolveIndex(t.Points, at)
	}
	return m
}
