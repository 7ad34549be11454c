package profile

import (
	"testing"
	"time"

	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/types/track"
	"github.com/rotblauer/trackplay/types/trackpoint"
)

func testTrack(id int64, elevations ...float64) *track.Track {
	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	points := make(trackpoint.TrackPoints, 0, len(elevations))
	for i, e := range elevations {
		points = append(points, trackpoint.TrackPoint{
			Lat:       55 + float64(i)*0.01,
			Lng:       -1.5,
			Elevation: e,
			Time:      t0.Add(time.Duration(i*5) * time.Second),
		})
	}
	return &track.Track{ID: conceptual.TrackID(id), Points: points, Color: "#ABCDEF"}
}

func TestBuild(t *testing.T) {
	p := Build(testTrack(1, 100, 110, 105))
	if len(p.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(p.Samples))
	}
	if p.Samples[1].ElevationFeet != 360.9 {
		t.Errorf("expected 360.9 ft, got %v", p.Samples[1].ElevationFeet)
	}
	if p.Samples[2].UnixMillis-p.Samples[0].UnixMillis != 10_000 {
		t.Errorf("unexpected sample times %+v", p.Samples)
	}
	s := p.Stats
	if s.MinMeters != 100 || s.MaxMeters != 110 || s.MedianMeters != 105 {
		t.Errorf("unexpected stats %+v", s)
	}
	if s.MeanMeters != 105 {
		t.Errorf("expected mean 105, got %v", s.MeanMeters)
	}
	if s.AscentMeters != 10 || s.DescentMeters != 5 {
		t.Errorf("expected ascent 10 descent 5, got %+v", s)
	}
	// Two hops of 0.01 degrees of latitude.
	if s.DistanceKm < 2.2 || s.DistanceKm > 2.3 {
		t.Errorf("unexpected distance %v", s.DistanceKm)
	}
	if p.TrackID != 1 || p.Color != "#ABCDEF" {
		t.Errorf("unexpected identity %+v", p)
	}
}

func TestBuild_SinglePoint(t *testing.T) {
	p := Build(testTrack(1, 42))
	if p.Stats.MinMeters != 42 || p.Stats.AscentMeters != 0 || p.Stats.DistanceKm != 0 {
		t.Errorf("unexpected stats %+v", p.Stats)
	}
}

func TestCache(t *testing.T) {
	c, err := NewCache(2)
	if err != nil {
		t.Fatal(err)
	}
	a := testTrack(1, 1, 2)
	first := c.Get(a)
	if c.Get(a) != first {
		t.Error("expected the memoized profile")
	}
	c.Get(testTrack(2, 1))
	c.Get(testTrack(3, 1))
	if c.Len() != 2 {
		t.Errorf("expected capacity to bound the cache, got %d", c.Len())
	}
	if c.Get(a) == first {
		t.Error("evicted profile should be rebuilt")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Error("expected empty cache after purge")
	}
	if _, err := NewCache(0); err == nil {
		t.Error("expected error for zero size")
	}
}
