package playback

import (
	"time"

	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/types/track"
	"github.com/rotblauer/trackplay/types/trackpoint"
)

var t0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return t0.Add(time.Duration(seconds * float64(time.Second)))
}

// newTrack builds a track whose points are offset from t0 by the given seconds.
func newTrack(id int64, offsets ...float64) *track.Track {
	points := make(trackpoint.TrackPoints, 0, len(offsets))
	for i, off := range offsets {
		points = append(points, trackpoint.TrackPoint{
			Lat:  55 + float64(i)*0.01,
			Lng:  -1.5,
			Time: at(off),
		})
	}
	return &track.Track{ID: conceptual.TrackID(id), Name: "test", Points: points, Color: "#000000"}
}

// trackA and trackB are the two-track scenario: A at 0, 5, 10s and B at 2, 8s.
func trackA() *track.Track { return newTrack(1, 0, 5, 10) }
func trackB() *track.Track { return newTrack(2, 2, 8) }
