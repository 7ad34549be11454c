// Package view projects the session into what clients draw: map features and readouts.
// Views are pure functions of the tracks, markers and index map they are given.
package view

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/trackplay/common"
	"github.com/rotblauer/trackplay/playback"
	"github.com/rotblauer/trackplay/types/marker"
	"github.com/rotblauer/trackplay/types/track"
)

// DefaultBounds frames the United Kingdom, used when nothing is loaded.
var DefaultBounds = orb.Bound{
	Min: orb.Point{-7.57216793459, 49.959999905},
	Max: orb.Point{1.68153079591, 58.6350001085},
}

type FitSource string

const (
	FitTracks  FitSource = "tracks"
	FitMarkers FitSource = "markers"
	FitDefault FitSource = "default"
)

const (
	KindTrack    = "track"
	KindPosition = "position"
	KindMarker   = "marker"
)

type Map struct {
	Features *geojson.FeatureCollection `json:"features"`
	// Bounds is [[south, west], [north, east]].
	Bounds [2][2]float64 `json:"bounds"`
	Fit    FitSource     `json:"fit"`
}

// MapView builds the map: a line per track, the current position of every started track,
// and every marker. Bounds fit the tracks, else the markers, else DefaultBounds.
func MapView(tracks track.Tracks, markers marker.Markers, indices playback.IndexMap) *Map {
	fc := geojson.NewFeatureCollection()
	for _, t := range tracks {
		line := geojson.NewFeature(t.LineString())
		line.ID = t.ID.String()
		line.Properties["kind"] = KindTrack
		line.Properties["track"] = int64(t.ID)
		line.Properties["name"] = t.Name
		line.Properties["color"] = t.Color
		fc.Append(line)
	}
	for _, t := range tracks {
		if f := positionFeature(t, indices); f != nil {
			fc.Append(f)
		}
	}
	for _, m := range markers {
		f := geojson.NewFeature(m.Point())
		f.ID = "marker-" + m.ID.String()
		f.Properties["kind"] = KindMarker
		f.Properties["marker"] = int64(m.ID)
		f.Properties["name"] = m.Name
		fc.Append(f)
	}

	bound, fit := fitBounds(tracks, markers)
	return &Map{
		Features: fc,
		Bounds: [2][2]float64{
			{bound.Min.Lat(), bound.Min.Lon()},
			{bound.Max.Lat(), bound.Max.Lon()},
		},
		Fit: fit,
	}
}

func positionFeature(t *track.Track, indices playback.IndexMap) *geojson.Feature {
	i, ok := indices[t.ID]
	if !ok || i < 0 || i >= t.Len() {
		return nil
	}
	pt := t.Points[i]
	f := geojson.NewFeature(pt.Point())
	f.ID = "position-" + t.ID.String()
	f.Properties["kind"] = KindPosition
	f.Properties["track"] = int64(t.ID)
	f.Properties["name"] = t.Name
	f.Properties["color"] = t.Color
	f.Properties["index"] = i
	f.Properties["heading"] = common.DecimalToFixed(t.Heading(i), 1)
	f.Properties["ele_ft"] = common.DecimalToFixed(pt.ElevationFeet(), 0)
	f.Properties["time"] = pt.Time.Format(time.RFC3339)
	return f
}

func fitBounds(tracks track.Tracks, markers marker.Markers) (orb.Bound, FitSource) {
	if b, ok := track.Bound(tracks); ok {
		return b, FitTracks
	}
	if b, ok := markers.Bound(); ok {
		return b, FitMarkers
	}
	return DefaultBounds, FitDefault
}
