package params

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidInterval  = errors.New("playback interval must be positive")
	ErrInvalidTimeScale = errors.New("playback time scale must be positive and finite")
	ErrInvalidSpeeds    = errors.New("playback speeds must be positive and finite")
)

type PlaybackConfig struct {
	// Interval is the wall-clock time between ticks.
	Interval time.Duration

	// TimeScale multiplies Interval * speed into the virtual time advanced per tick.
	// At 10 with a 100ms interval, 1x plays one recorded second per tick.
	TimeScale float64

	// Speeds are the multipliers offered to clients.
	Speeds []float64
}

func DefaultPlaybackConfig() *PlaybackConfig {
	return &PlaybackConfig{
		Interval:  100 * time.Millisecond,
		TimeScale: 10,
		Speeds:    []float64{0.25, 0.5, 1, 2, 4, 8},
	}
}

// DefaultTestPlaybackConfig ticks fast: one virtual second per millisecond at 1x.
func DefaultTestPlaybackConfig() *PlaybackConfig {
	return &PlaybackConfig{
		Interval:  time.Millisecond,
		TimeScale: 1000,
		Speeds:    []float64{0.25, 0.5, 1, 2, 4, 8},
	}
}

// Validate rejects configs the tick source cannot run with.
func (c *PlaybackConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, c.Interval)
	}
	if !positiveFinite(c.TimeScale) {
		return fmt.Errorf("%w: %v", ErrInvalidTimeScale, c.TimeScale)
	}
	for _, m := range c.Speeds {
		if !positiveFinite(m) {
			return fmt.Errorf("%w: %v", ErrInvalidSpeeds, m)
		}
	}
	return nil
}

func positiveFinite(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
