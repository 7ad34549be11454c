package view

import (
	"fmt"
	"time"

	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/geo/bearing"
	"github.com/rotblauer/trackplay/playback"
	"github.com/rotblauer/trackplay/types/marker"
	"github.com/rotblauer/trackplay/types/track"
	"github.com/shopspring/decimal"
)

var full = decimal.NewFromInt(360)

// Readout is the distance and magnetic bearing from a marker to a track's current position.
type Readout struct {
	TrackID    conceptual.TrackID  `json:"track"`
	TrackName  string              `json:"track_name"`
	Color      string              `json:"color"`
	MarkerID   conceptual.MarkerID `json:"marker"`
	MarkerName string              `json:"marker_name"`
	Time       time.Time           `json:"time"`
	DistanceKm float64             `json:"distance_km"`
	DistanceMi float64             `json:"distance_mi"`
	Bearing    float64             `json:"bearing_magnetic"`
	Label      string              `json:"label"`
}

// Readouts measures every started track against every marker, tracks outermost.
// A nil declinator uses bearing.DefaultDeclinator.
func Readouts(tracks track.Tracks, markers marker.Markers, indices playback.IndexMap, d bearing.Declinator) []Readout {
	out := []Readout{}
	for _, t := range tracks {
		i, ok := indices[t.ID]
		if !ok || i < 0 || i >= t.Len() {
			continue
		}
		pt := t.Points[i]
		for _, m := range markers {
			km := decimal.NewFromFloat(bearing.DistanceKm(m.Point(), pt.Point()))
			mi := decimal.NewFromFloat(bearing.DistanceMiles(m.Point(), pt.Point()))
			deg := decimal.NewFromFloat(bearing.MagneticBearing(d, m.Point(), pt.Point(), pt.Elevation, pt.Time)).Round(2)
			if deg.GreaterThanOrEqual(full) {
				deg = decimal.Zero
			}
			out = append(out, Readout{
				TrackID:    t.ID,
				TrackName:  t.Name,
				Color:      t.Color,
				MarkerID:   m.ID,
				MarkerName: m.Name,
				Time:       pt.Time,
				DistanceKm: km.Round(2).InexactFloat64(),
				DistanceMi: mi.Round(2).InexactFloat64(),
				Bearing:    deg.InexactFloat64(),
				Label: fmt.Sprintf("%s to %s: %s km (%s miles), bearing %s° magnetic",
					m.Name, t.Name, km.StringFixed(2), mi.StringFixed(2), deg.StringFixed(2)),
			})
		}
	}
	return out
}
