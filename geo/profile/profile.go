// Package profile derives the elevation over time chart data for a track.
package profile

import (
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb/geo"
	"github.com/rotblauer/trackplay/common"
	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/types/track"
)

type Sample struct {
	Time            time.Time `json:"time"`
	UnixMillis      int64     `json:"unix_ms"`
	ElevationMeters float64   `json:"ele_m"`
	ElevationFeet   float64   `json:"ele_ft"`
}

type Stats struct {
	MinMeters     float64 `json:"min_m"`
	MaxMeters     float64 `json:"max_m"`
	MeanMeters    float64 `json:"mean_m"`
	MedianMeters  float64 `json:"median_m"`
	AscentMeters  float64 `json:"ascent_m"`
	DescentMeters float64 `json:"descent_m"`
	DistanceKm    float64 `json:"distance_km"`
}

type Profile struct {
	TrackID conceptual.TrackID `json:"track"`
	Color   string             `json:"color"`
	Samples []Sample           `json:"samples"`
	Stats   Stats              `json:"stats"`
}

// Build computes the profile of a track. Indices of Samples match the track's points.
func Build(t *track.Track) *Profile {
	p := &Profile{
		TrackID: t.ID,
		Color:   t.Color,
		Samples: make([]Sample, 0, t.Len()),
	}
	elevations := make([]float64, 0, t.Len())
	meters := 0.0
	for i, pt := range t.Points {
		p.Samples = append(p.Samples, Sample{
			Time:            pt.Time,
			UnixMillis:      pt.Time.UnixMilli(),
			ElevationMeters: pt.Elevation,
			ElevationFeet:   common.DecimalToFixed(pt.ElevationFeet(), 1),
		})
		elevations = append(elevations, pt.Elevation)
		if i == 0 {
			continue
		}
		meters += geo.Distance(t.Points[i-1].Point(), pt.Point())
		delta := pt.Elevation - t.Points[i-1].Elevation
		if delta > 0 {
			p.Stats.AscentMeters += delta
		} else {
			p.Stats.DescentMeters += math.Abs(delta)
		}
	}

	statsMustFloat := func(fn func() (float64, error)) float64 {
		out, err := fn()
		if err != nil {
			return 0
		}
		return common.DecimalToFixed(out, 1)
	}
	data := stats.Float64Data(elevations)
	p.Stats.MinMeters = statsMustFloat(data.Min)
	p.Stats.MaxMeters = statsMustFloat(data.Max)
	p.Stats.MeanMeters = statsMustFloat(data.Mean)
	p.Stats.MedianMeters = statsMustFloat(data.Median)
	p.Stats.AscentMeters = common.DecimalToFixed(p.Stats.AscentMeters, 1)
	p.Stats.DescentMeters = common.DecimalToFixed(p.Stats.DescentMeters, 1)
	p.Stats.DistanceKm = common.DecimalToFixed(meters/1000, 3)
	return p
}

// Cache memoizes profiles by track id. Tracks are immutable, so entries never go stale.
type Cache struct {
	lru *lru.Cache[conceptual.TrackID, *Profile]
}

func NewCache(size int) (*Cache, error) {
	c, err := lru.New[conceptual.TrackID, *Profile](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

func (c *Cache) Get(t *track.Track) *Profile {
	if p, ok := c.lru.Get(t.ID); ok {
		return p
	}
	p := Build(t)
	c.lru.Add(t.ID, p)
	return p
}

func (c *Cache) Purge() {
	c.lru.Purge()
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
