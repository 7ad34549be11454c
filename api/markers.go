package api

import (
	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/events"
	"github.com/rotblauer/trackplay/types/marker"
)

func (s *Session) Markers() marker.Markers {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(marker.Markers, len(s.markers))
	copy(out, s.markers)
	return out
}

// AddMarker validates and appends a custom marker.
func (s *Session) AddMarker(name string, lat, lng float64) (*marker.Marker, error) {
	s.mu.Lock()
	m, err := marker.New(s.nextMarkerID, name, lat, lng)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.nextMarkerID++
	s.markers = append(s.markers, m)
	s.mu.Unlock()

	s.logger.Info("Added marker", "id", m.ID, "name", m.Name, "lat", m.Lat, "lng", m.Lng)
	events.MarkersFeed.Send(events.MarkersChange{Added: m})
	return m, nil
}

// AddBullsEye adds the preset BullsEye marker.
func (s *Session) AddBullsEye() *marker.Marker {
	s.mu.Lock()
	m := marker.NewBullsEye(s.nextMarkerID)
	s.nextMarkerID++
	s.markers = append(s.markers, m)
	s.mu.Unlock()

	s.logger.Info("Added marker", "id", m.ID, "name", m.Name)
	events.MarkersFeed.Send(events.MarkersChange{Added: m})
	return m
}

func (s *Session) RemoveMarker(id conceptual.MarkerID) error {
	s.mu.Lock()
	idx := -1
	for i, m := range s.markers {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrMarkerNotFound
	}
	s.markers = append(s.markers[:idx:idx], s.markers[idx+1:]...)
	s.mu.Unlock()

	s.logger.Info("Removed marker", "id", id)
	events.MarkersFeed.Send(events.MarkersChange{Removed: id})
	return nil
}
