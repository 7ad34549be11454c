package marker

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotblauer/trackplay/conceptual"
)

var (
	ErrMissingName      = errors.New("marker name is required")
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// BullsEye is the fixed reference point offered as a one-click test marker.
var BullsEye = struct {
	Name     string
	Lat, Lng float64
}{"BullsEye", 55.873529, -1.782049}

// Marker is a user-placed reference point.
// Distance and bearing readouts are measured from markers to the moving tracks.
type Marker struct {
	ID   conceptual.MarkerID `json:"id"`
	Name string              `json:"name"`
	Lat  float64             `json:"lat"`
	Lng  float64             `json:"lng"`
}

func New(id conceptual.MarkerID, name string, lat, lng float64) (*Marker, error) {
	m := &Marker{ID: id, Name: strings.TrimSpace(name), Lat: lat, Lng: lng}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func NewBullsEye(id conceptual.MarkerID) *Marker {
	return &Marker{ID: id, Name: BullsEye.Name, Lat: BullsEye.Lat, Lng: BullsEye.Lng}
}

func (m *Marker) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if math.IsNaN(m.Lat) || m.Lat < -90 || m.Lat > 90 {
		return fmt.Errorf("%w: %v", ErrInvalidLatitude, m.Lat)
	}
	if math.IsNaN(m.Lng) || m.Lng < -180 || m.Lng > 180 {
		return fmt.Errorf("%w: %v", ErrInvalidLongitude, m.Lng)
	}
	return nil
}

func (m *Marker) Point() orb.Point {
	return orb.Point{m.Lng, m.Lat}
}

type Markers []*Marker

func (ms Markers) Bound() (orb.Bound, bool) {
	if len(ms) == 0 {
		return orb.Bound{}, false
	}
	mp := make(orb.MultiPoint, 0, len(ms))
	for _, m := range ms {
		mp = append(mp, m.Point())
	}
	return mp.Bound(), true
}
