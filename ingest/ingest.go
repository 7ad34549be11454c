// Package ingest turns uploaded GPX files into sorted, timestamped point sequences.
// Files are handled independently: one bad file in a batch never affects another.
package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/trackplay/types/trackpoint"
	"github.com/tkrajina/gpxgo/gpx"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNoValidPoints       = errors.New("no valid track data found")
	ErrParse               = errors.New("failed to parse GPX")
)

const gpxExtension = ".gpx"

// File is a named blob of uploaded content.
type File struct {
	Name    string
	Content []byte
}

// Parsed is the result of a successful ingestion, before the session assigns an id.
type Parsed struct {
	Name   string
	Points trackpoint.TrackPoints
	Color  string

	// Dropped counts trkpts skipped for lack of a parseable time.
	Dropped int
	// Reordered is true when the file's points were not in chronological order.
	Reordered bool
}

// Result pairs a file with its outcome. Exactly one of Parsed and Err is set.
type Result struct {
	File   string
	Parsed *Parsed
	Err    error
}

type Ingester struct {
	// Color returns a display color for each new track.
	Color  func() string
	logger *slog.Logger
}

func NewIngester() *Ingester {
	return &Ingester{
		Color:  RandomColor,
		logger: slog.With("d", "ingest"),
	}
}

// Batch ingests every file, in order.
func (in *Ingester) Batch(files []File) []Result {
	results := make([]Result, 0, len(files))
	for _, f := range files {
		parsed, err := in.Ingest(f.Name, f.Content)
		results = append(results, Result{File: f.Name, Parsed: parsed, Err: err})
	}
	return results
}

// Ingest parses one file.
func (in *Ingester) Ingest(name string, content []byte) (*Parsed, error) {
	if !strings.EqualFold(filepath.Ext(name), gpxExtension) {
		in.logger.Warn("Unsupported file type", "file", name)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, name)
	}
	in.logger.Debug("Parsing GPX", "file", name, "size", humanize.Bytes(uint64(len(content))))

	doc, err := gpx.ParseBytes(content)
	if err != nil {
		in.logger.Error("Failed to parse GPX", "file", name, "error", err)
		return nil, fmt.Errorf("%w %s: %v", ErrParse, name, err)
	}

	points, dropped := collectPoints(doc, func(i int) {
		in.logger.Warn("Invalid time at point", "index", i, "file", name)
	})
	if len(points) == 0 {
		in.logger.Error("No valid track points found in the GPX file", "file", name)
		return nil, fmt.Errorf("%w in the GPX file: %s", ErrNoValidPoints, name)
	}

	reordered := !isChronological(points)
	if reordered {
		in.logger.Warn("Track points out of chronological order, sorting", "file", name)
		slices.SortStableFunc(points, func(a, b trackpoint.TrackPoint) int {
			return a.Time.Compare(b.Time)
		})
	}

	p := &Parsed{
		Name:      name,
		Points:    points,
		Color:     in.Color(),
		Dropped:   dropped,
		Reordered: reordered,
	}
	in.logger.Info("Ingested track", "file", name, "points", len(points), "dropped", dropped,
		"start", points[0].Time, "end", points[len(points)-1].Time)
	return p, nil
}

// collectPoints walks every trkpt of every track segment, in document order.
// onInvalid is called with the document-order index of each dropped point.
func collectPoints(doc *gpx.GPX, onInvalid func(i int)) (points trackpoint.TrackPoints, dropped int) {
	i := -1
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				i++
				if p.Timestamp.IsZero() {
					dropped++
					onInvalid(i)
					continue
				}
				ele := 0.0
				if p.Elevation.NotNull() {
					ele = p.Elevation.Value()
				}
				points = append(points, trackpoint.TrackPoint{
					Lat:       p.Latitude,
					Lng:       p.Longitude,
					Elevation: ele,
					Time:      p.Timestamp.UTC(),
				})
			}
		}
	}
	return points, dropped
}

func isChronological(points trackpoint.TrackPoints) bool {
	for i := 1; i < len(points); i++ {
		if points[i].Time.Before(points[i-1].Time) {
			return false
		}
	}
	return true
}

// RandomColor returns a random #RRGGBB color.
func RandomColor() string {
	const letters = "0123456789ABCDEF"
	var b strings.Builder
	b.WriteByte('#')
	for i := 0; i < 6; i++ {
		b.WriteByte(letters[rand.IntN(16)])
	}
	return b.String()
}

// ReadFiles reads files from disk for ingestion.
func ReadFiles(paths ...string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Name: filepath.Base(p), Content: b})
	}
	return files, nil
}
