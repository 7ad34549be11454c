// Package bearing measures the distance and compass direction between points.
// Distances are great-circle distances on a spherical earth.
// Magnetic bearings subtract the local magnetic declination from the true bearing.
package bearing

import (
	"math"
	"time"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/rotblauer/trackplay/common"
)

// DistanceKm returns the great-circle distance between a and b in kilometers.
func DistanceKm(a, b orb.Point) float64 {
	llA := s2.LatLngFromDegrees(a.Lat(), a.Lon())
	llB := s2.LatLngFromDegrees(b.Lat(), b.Lon())
	return llA.Distance(llB).Radians() * common.EarthRadiusKm
}

func DistanceMiles(a, b orb.Point) float64 {
	return common.KilometersToMiles(DistanceKm(a, b))
}

// TrueBearing returns the initial bearing from a to b in degrees, [0, 360).
func TrueBearing(a, b orb.Point) float64 {
	return normalize(geo.Bearing(a, b))
}

// MagneticBearing returns the bearing from a to b relative to magnetic north,
// using the declination at a.
func MagneticBearing(d Declinator, a, b orb.Point, altitudeMeters float64, at time.Time) float64 {
	if d == nil {
		d = DefaultDeclinator
	}
	dec := d.Declination(a.Lat(), a.Lon(), altitudeMeters, at)
	return normalize(TrueBearing(a, b) - dec)
}

func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// Tiny negative inputs can land exactly on 360 after the shift.
	if deg >= 360 {
		deg = 0
	}
	return deg
}
