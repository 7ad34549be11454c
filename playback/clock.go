package playback

import (
	"math"
	"time"
)

// Clock is the playback state machine.
// It is not safe for concurrent use; Player serializes access to it.
type Clock struct {
	interval  time.Duration
	timeScale float64
	state     State
}

// NewClock returns an unbounded, paused clock at 1x.
// Each tick advances virtual time by interval * speed * timeScale.
func NewClock(interval time.Duration, timeScale float64) *Clock {
	return &Clock{
		interval:  interval,
		timeScale: timeScale,
		state:     State{SpeedMultiplier: 1},
	}
}

func (c *Clock) State() State {
	return c.state
}

func (c *Clock) Interval() time.Duration {
	return c.interval
}

// Step is the virtual time one tick advances at the current speed,
// saturating at the largest representable duration.
func (c *Clock) Step() time.Duration {
	step := c.step()
	if step >= math.MaxInt64 {
		return math.MaxInt64
	}
	return time.Duration(step)
}

func (c *Clock) step() float64 {
	return float64(c.interval) * c.state.SpeedMultiplier * c.timeScale
}

// Start sets the clock playing, rewinding first if it sits at the end.
// It returns false when there is nothing to play.
func (c *Clock) Start() bool {
	if !c.state.HasTracks() {
		return false
	}
	if c.state.AtEnd() {
		c.state.CurrentTime = c.state.EarliestTime
	}
	c.state.IsPlaying = true
	return true
}

func (c *Clock) Pause() {
	c.state.IsPlaying = false
}

func (c *Clock) Restart() {
	c.state.IsPlaying = false
	if c.state.HasTracks() {
		c.state.CurrentTime = c.state.EarliestTime
	}
}

// Seek moves to t, clamped into the time range, and pauses.
// It returns false when the clock is unbounded.
func (c *Clock) Seek(t time.Time) bool {
	if !c.state.HasTracks() {
		return false
	}
	c.state.IsPlaying = false
	c.state.CurrentTime = c.clamp(t)
	return true
}

// SetSpeed changes the multiplier used by subsequent ticks.
func (c *Clock) SetSpeed(m float64) error {
	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return ErrInvalidSpeed
	}
	c.state.SpeedMultiplier = m
	return nil
}

// Tick advances the current time by one step.
// Reaching or passing the latest time clamps to it and stops playback.
// It returns false if the clock did not move.
func (c *Clock) Tick() bool {
	if !c.state.HasTracks() || !c.state.IsPlaying {
		return false
	}
	// Compare in float64 so a huge speed cannot overflow the duration.
	remaining := c.state.LatestTime.Sub(c.state.CurrentTime)
	if c.step() >= float64(remaining) {
		c.state.CurrentTime = c.state.LatestTime
		c.state.IsPlaying = false
		return true
	}
	c.state.CurrentTime = c.state.CurrentTime.Add(time.Duration(c.step()))
	return true
}

// SetBounds installs a new time range.
// An unbounded clock starts at earliest; a bounded one keeps its position, clamped.
func (c *Clock) SetBounds(earliest, latest time.Time) error {
	if earliest.After(latest) {
		return ErrMalformedTimeRange
	}
	first := !c.state.HasTracks()
	c.state.EarliestTime = earliest
	c.state.LatestTime = latest
	if first {
		c.state.CurrentTime = earliest
		return nil
	}
	c.state.CurrentTime = c.clamp(c.state.CurrentTime)
	return nil
}

// ClearBounds returns the clock to the unbounded, paused state. Speed is kept.
func (c *Clock) ClearBounds() {
	c.state = State{SpeedMultiplier: c.state.SpeedMultiplier}
}

func (c *Clock) clamp(t time.Time) time.Time {
	if t.Before(c.state.EarliestTime) {
		return c.state.EarliestTime
	}
	if t.After(c.state.LatestTime) {
		return c.state.LatestTime
	}
	return t
}
