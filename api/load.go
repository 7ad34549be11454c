package api

import (
	"fmt"

	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/events"
	"github.com/rotblauer/trackplay/ingest"
	"github.com/rotblauer/trackplay/types/track"
)

// LoadResult reports the outcome of one file of a load.
type LoadResult struct {
	File    string             `json:"file"`
	TrackID conceptual.TrackID `json:"track,omitempty"`
	Points  int                `json:"points,omitempty"`
	Dropped int                `json:"dropped,omitempty"`
	Error   string             `json:"error,omitempty"`

	err error
}

func (r LoadResult) Err() error {
	return r.err
}

// LoadFiles ingests files, assigns ids in file order, and adds the good ones to playback.
// A failed file raises an alert and never affects the others.
func (s *Session) LoadFiles(files []ingest.File) []LoadResult {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	results := s.ingester.Batch(files)
	out := make([]LoadResult, 0, len(results))
	added := make(track.Tracks, 0, len(results))
	alerts := []events.Alert{}

	s.mu.Lock()
	for _, r := range results {
		lr := LoadResult{File: r.File}
		if r.Err != nil {
			lr.err = r.Err
			lr.Error = r.Err.Error()
			out = append(out, lr)
			alerts = append(alerts, events.NewAlert(events.AlertError, r.File, r.Err.Error()))
			continue
		}
		t := &track.Track{
			ID:     s.nextTrackID,
			Name:   r.Parsed.Name,
			Points: r.Parsed.Points,
			Color:  r.Parsed.Color,
		}
		s.nextTrackID++
		added = append(added, t)

		lr.TrackID = t.ID
		lr.Points = t.Len()
		lr.Dropped = r.Parsed.Dropped
		out = append(out, lr)

		if r.Parsed.Dropped > 0 {
			alerts = append(alerts, events.NewAlert(events.AlertWarn, r.File,
				fmt.Sprintf("Skipped %d track points without a valid time", r.Parsed.Dropped)))
		}
		if r.Parsed.Reordered {
			alerts = append(alerts, events.NewAlert(events.AlertWarn, r.File,
				"Track points were out of chronological order and have been sorted"))
		}
		alerts = append(alerts, events.NewAlert(events.AlertInfo, r.File,
			fmt.Sprintf("Loaded %d track points", t.Len())))
	}
	s.mu.Unlock()

	if len(added) > 0 {
		if err := s.player.AddTracks(added...); err != nil {
			// Sorted, non-empty tracks always have a valid range.
			s.logger.Error("Failed to add tracks", "error", err)
			for i := range out {
				if out[i].err == nil {
					out[i].err = err
					out[i].Error = err.Error()
					out[i].TrackID = 0
				}
			}
		} else {
			s.logger.Info("Added tracks", "count", len(added), "total", len(s.player.Tracks()))
		}
	}

	for _, a := range alerts {
		s.alert(a)
	}
	return out
}
