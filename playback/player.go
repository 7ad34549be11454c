package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/trackplay/params"
	"github.com/rotblauer/trackplay/types/track"
)

// Frame is a consistent snapshot: Indices were resolved against State.CurrentTime.
type Frame struct {
	Seq     uint64   `json:"seq"`
	State   State    `json:"state"`
	Indices IndexMap `json:"indices"`
}

// Player owns the clock, the track set and the index map, and runs the tick source.
// Every mutation publishes a Frame on the feed, in mutation order.
// Subscribers must keep draining their channels and must not call
// Player methods from the goroutine that receives frames.
type Player struct {
	config *params.PlaybackConfig
	logger *slog.Logger

	// pubMu orders compute-then-send so frames reach the feed in mutation order.
	pubMu sync.Mutex

	mu      sync.Mutex
	clock   *Clock
	tracks  track.Tracks
	indices IndexMap
	seq     uint64
	closed  bool

	// generation identifies the armed tick source; ticks from older generations are ignored.
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	feed event.FeedOf[Frame]

	registry metrics.Registry
	ticks    metrics.Meter
	frames   metrics.Counter
}

// NewPlayer returns a stopped player with no tracks.
// It fails if the config has a non-positive interval or time scale.
func NewPlayer(config *params.PlaybackConfig) (*Player, error) {
	if config == nil {
		config = params.DefaultPlaybackConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := &Player{
		config:   config,
		logger:   slog.With("d", "playback"),
		clock:    NewClock(config.Interval, config.TimeScale),
		indices:  IndexMap{},
		registry: metrics.NewRegistry(),
		ticks:    metrics.NewMeter(),
		frames:   metrics.NewCounter(),
	}
	if err := p.registry.Register("playback.ticks", p.ticks); err != nil {
		panic(err)
	}
	if err := p.registry.Register("playback.frames", p.frames); err != nil {
		panic(err)
	}
	return p, nil
}

// Subscribe delivers every subsequent frame to ch.
func (p *Player) Subscribe(ch chan<- Frame) event.Subscription {
	return p.feed.Subscribe(ch)
}

// Frame returns the current snapshot without publishing it.
func (p *Player) Frame() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameLocked()
}

// Snapshot returns the current frame together with the tracks it was resolved against.
func (p *Player) Snapshot() (Frame, track.Tracks) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(track.Tracks, len(p.tracks))
	copy(out, p.tracks)
	return p.frameLocked(), out
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.State()
}

func (p *Player) Tracks() track.Tracks {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(track.Tracks, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// Metrics returns the player's metric registry.
func (p *Player) Metrics() metrics.Registry {
	return p.registry
}

// Start begins playback. Starting while already playing keeps the existing tick source.
func (p *Player) Start() bool {
	return p.mutate(func() bool {
		if p.closed {
			return false
		}
		if p.clock.State().IsPlaying && p.cancel != nil {
			return false
		}
		if !p.clock.Start() {
			return false
		}
		p.armLocked()
		p.logger.Debug("Playback started", "at", p.clock.State().CurrentTime, "speed", p.clock.State().SpeedMultiplier)
		return true
	})
}

func (p *Player) Pause() {
	p.mutate(func() bool {
		p.disarmLocked()
		p.clock.Pause()
		return true
	})
}

func (p *Player) Restart() {
	p.mutate(func() bool {
		p.disarmLocked()
		p.clock.Restart()
		return true
	})
}

// Seek pauses and moves to t, clamped into the loaded time range.
func (p *Player) Seek(t time.Time) bool {
	return p.mutate(func() bool {
		if !p.clock.State().HasTracks() {
			return false
		}
		p.disarmLocked()
		return p.clock.Seek(t)
	})
}

func (p *Player) SetSpeed(m float64) error {
	var err error
	p.mutate(func() bool {
		err = p.clock.SetSpeed(m)
		return err == nil
	})
	return err
}

// AddTracks appends tracks and recomputes the time range.
func (p *Player) AddTracks(tracks ...*track.Track) error {
	var err error
	p.mutate(func() bool {
		next := append(append(track.Tracks{}, p.tracks...), tracks...)
		err = p.setTracksLocked(next)
		return err == nil
	})
	return err
}

// Reset drops every track and leaves the clock unbounded.
func (p *Player) Reset() {
	p.mutate(func() bool {
		p.disarmLocked()
		p.tracks = nil
		p.clock.ClearBounds()
		return true
	})
}

// Closed reports whether Close has been called.
func (p *Player) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close stops the tick source and waits for it to exit.
func (p *Player) Close() {
	p.mu.Lock()
	p.closed = true
	p.disarmLocked()
	p.clock.Pause()
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Player) setTracksLocked(tracks track.Tracks) error {
	earliest, latest, ok := track.TimeBounds(tracks)
	if !ok {
		p.disarmLocked()
		p.tracks = nil
		p.clock.ClearBounds()
		return nil
	}
	if err := p.clock.SetBounds(earliest, latest); err != nil {
		return err
	}
	p.tracks = tracks
	return nil
}

// mutate applies fn under the lock and, if fn reports a change, publishes a frame.
func (p *Player) mutate(fn func() bool) bool {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	p.mu.Lock()
	if !fn() {
		p.mu.Unlock()
		return false
	}
	f := p.refreshLocked()
	p.mu.Unlock()

	p.publish(f)
	return true
}

// refreshLocked recomputes the index map for the current time and bumps the sequence.
func (p *Player) refreshLocked() Frame {
	p.indices = ResolveIndices(p.tracks, p.clock.State().CurrentTime)
	p.seq++
	return p.frameLocked()
}

func (p *Player) frameLocked() Frame {
	return Frame{Seq: p.seq, State: p.clock.State(), Indices: p.indices}
}

func (p *Player) publish(f Frame) {
	p.feed.Send(f)
	p.frames.Inc(1)
}

func (p *Player) armLocked() {
	p.disarmLocked()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	gen := p.generation
	p.wg.Add(1)
	go p.run(ctx, gen, p.clock.Interval())
}

// disarmLocked cancels the tick source. A tick already waiting on the lock sees a newer generation and does nothing.
func (p *Player) disarmLocked() {
	p.generation++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Player) run(ctx context.Context, gen uint64, interval time.Duration) {
	defer p.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.tick(gen) {
				return
			}
		}
	}
}

// tick advances the clock once. It returns false when the tick source should exit.
func (p *Player) tick(gen uint64) bool {
	playing := false
	p.mutate(func() bool {
		if gen != p.generation || !p.clock.State().IsPlaying {
			return false
		}
		moved := p.clock.Tick()
		p.ticks.Mark(1)
		playing = p.clock.State().IsPlaying
		if !playing {
			p.logger.Debug("Playback reached the end", "at", p.clock.State().CurrentTime)
			p.disarmLocked()
		}
		return moved
	})
	return playing
}
