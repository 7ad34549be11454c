package trackpoint

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/rotblauer/trackplay/common"
)

// TrackPoint is one timestamped fix from a GPX track.
// Points are immutable once parsed.
type TrackPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Elevation float64   `json:"ele"` // in meters
	Time      time.Time `json:"time"`
}

// Point returns the point as an orb.Point, which is [lng, lat].
func (tp TrackPoint) Point() orb.Point {
	return orb.Point{tp.Lng, tp.Lat}
}

func (tp TrackPoint) ElevationFeet() float64 {
	return common.MetersToFeet(tp.Elevation)
}

type TrackPoints []TrackPoint
