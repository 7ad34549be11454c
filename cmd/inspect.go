/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/geo/profile"
	"github.com/rotblauer/trackplay/ingest"
	"github.com/rotblauer/trackplay/playback"
	"github.com/rotblauer/trackplay/types/track"
	"github.com/spf13/cobra"
)

var optInspectAt string

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE.gpx...",
	Short: "Summarize GPX files and resolve them at an instant",
	Long: `Ingests GPX files exactly as webd would and prints, as JSON, a summary of every track
and the index each track has reached at --at (default: the earliest point of all tracks).

Example:

  trackplay inspect ride.gpx run.gpx --at 2024-06-01T10:00:06Z`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		if err := runInspect(cmd.OutOrStdout(), optInspectAt, args...); err != nil {
			log.Fatalln(err)
		}
	},
}

type inspectTrack struct {
	File    string             `json:"file"`
	Error   string             `json:"error,omitempty"`
	Dropped int                `json:"dropped,omitempty"`
	Summary *track.Summary     `json:"summary,omitempty"`
	Stats   *profile.Stats     `json:"stats,omitempty"`
	Size    string             `json:"size"`
	ID      conceptual.TrackID `json:"id,omitempty"`
}

type inspectReport struct {
	Tracks  []inspectTrack    `json:"tracks"`
	At      *time.Time        `json:"at"`
	Indices playback.IndexMap `json:"indices"`
}

func runInspect(w io.Writer, at string, paths ...string) error {
	files, err := ingest.ReadFiles(paths...)
	if err != nil {
		return err
	}
	results := ingest.NewIngester().Batch(files)

	report := inspectReport{Tracks: make([]inspectTrack, 0, len(results))}
	tracks := track.Tracks{}
	nextID := conceptual.TrackID(1)
	for i, r := range results {
		it := inspectTrack{File: r.File, Size: humanize.Bytes(uint64(len(files[i].Content)))}
		if r.Err != nil {
			it.Error = r.Err.Error()
			report.Tracks = append(report.Tracks, it)
			continue
		}
		t := &track.Track{ID: nextID, Name: r.Parsed.Name, Points: r.Parsed.Points, Color: r.Parsed.Color}
		nextID++
		tracks = append(tracks, t)

		summary := t.Summary()
		stats := profile.Build(t).Stats
		it.ID = t.ID
		it.Dropped = r.Parsed.Dropped
		it.Summary = &summary
		it.Stats = &stats
		report.Tracks = append(report.Tracks, it)
	}

	earliest, latest, ok := track.TimeBounds(tracks)
	if ok {
		clock := playback.NewClock(0, 0)
		if err := clock.SetBounds(earliest, latest); err != nil {
			return err
		}
		if at != "" {
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("invalid --at: %w", err)
			}
			clock.Seek(t)
		}
		current := clock.State().CurrentTime
		report.At = &current
		report.Indices = playback.ResolveIndices(tracks, current)
	} else {
		report.Indices = playback.IndexMap{}
	}

	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&optInspectAt, "at", "", "RFC3339 instant to resolve indices at (clamped to the tracks' time range)")
}
