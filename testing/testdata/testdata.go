package testdata

import (
	"os"
	"path/filepath"
	"runtime"
)

// basepath is the root directory of this package.
var basepath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basepath = filepath.Dir(currentFile)
}

// Path returns the absolute path the given relative file or directory path,
// relative to this testdata/ directory in the user's GOPATH.
// If rel is already absolute, it is returned unmodified.
// Taken from https://github.com/grpc/grpc-go/blob/master/testdata/testdata.go.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(basepath, rel)
}

// MustRead reads a fixture, panicking on error.
func MustRead(rel string) []byte {
	b, err := os.ReadFile(Path(rel))
	if err != nil {
		panic(err)
	}
	return b
}

// Source_TrackA has points at 10:00:00, 10:00:05 and 10:00:10 UTC on 2024-06-01.
var Source_TrackA = "./gpx/track_a.gpx"

// Source_TrackB has points at 10:00:02 and 10:00:08 UTC on 2024-06-01.
var Source_TrackB = "./gpx/track_b.gpx"

// Source_MissingTimes has four trkpts; the second has no time and the third an unparseable one.
// The first point has no elevation.
var Source_MissingTimes = "./gpx/missing_times.gpx"

// Source_Unsorted has three points recorded out of chronological order.
var Source_Unsorted = "./gpx/unsorted.gpx"

// Source_NoTimes has trkpts but none with a time.
var Source_NoTimes = "./gpx/no_times.gpx"

// Source_MultiSegment has two tracks with two segments between them, three points total.
var Source_MultiSegment = "./gpx/multi_segment.gpx"
