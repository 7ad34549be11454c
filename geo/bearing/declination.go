package bearing

import (
	"math"
	"sync"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// Declinator returns the magnetic declination in degrees (east positive)
// at a location, altitude and time.
type Declinator interface {
	Declination(lat, lng, altitudeMeters float64, at time.Time) float64
}

// DeclinatorFunc adapts a function to a Declinator.
type DeclinatorFunc func(lat, lng, altitudeMeters float64, at time.Time) float64

func (f DeclinatorFunc) Declination(lat, lng, altitudeMeters float64, at time.Time) float64 {
	return f(lat, lng, altitudeMeters, at)
}

// DefaultDeclinator is the World Magnetic Model.
var DefaultDeclinator Declinator = WMM{}

// Declination returns the declination from the default model.
func Declination(lat, lng, altitudeMeters float64, at time.Time) float64 {
	return DefaultDeclinator.Declination(lat, lng, altitudeMeters, at)
}

// WMM evaluates the degree 12 World Magnetic Model with its bundled coefficients.
// Times outside the coefficients' validity window are extrapolated
// along the secular variation.
type WMM struct{}

// wmmMu guards the wmm package, which caches the last evaluated location in globals.
var wmmMu sync.Mutex

func (WMM) Declination(lat, lng, altitudeMeters float64, at time.Time) float64 {
	// Declination is undefined where true north is.
	if math.Abs(lat) >= 90 {
		return 0
	}
	loc := egm96.NewLocationGeodetic(lat, lng, altitudeMeters)

	wmmMu.Lock()
	field, _ := wmm.CalculateWMMMagneticField(loc, at.UTC())
	wmmMu.Unlock()

	d := field.D()
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}
