package playback

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/rotblauer/trackplay/common"
	"github.com/rotblauer/trackplay/params"
)

func newTestPlayer(t *testing.T) *Player {
	t.Helper()
	p, err := NewPlayer(params.DefaultTestPlaybackConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	return p
}

// slowTestPlayer ticks rarely enough that tests can act between ticks.
func slowTestPlayer(t *testing.T) *Player {
	t.Helper()
	cfg := params.DefaultTestPlaybackConfig()
	cfg.Interval = time.Hour
	p, err := NewPlayer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	return p
}

func waitFrame(t *testing.T, ch <-chan Frame, ok func(Frame) bool) Frame {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case f := <-ch:
			if ok(f) {
				return f
			}
		case <-timeout:
			t.Fatal("timed out waiting for frame")
		}
	}
}

func TestPlayer_FrameConsistency(t *testing.T) {
	defer common.SlogResetLevel(slog.Level(slog.LevelWarn + 1))()
	p := newTestPlayer(t)
	ch := make(chan Frame, 128)
	sub := p.Subscribe(ch)
	defer sub.Unsubscribe()

	if err := p.AddTracks(trackA(), trackB()); err != nil {
		t.Fatal(err)
	}
	f := waitFrame(t, ch, func(Frame) bool { return true })
	if !f.State.CurrentTime.Equal(at(0)) || f.State.IsPlaying {
		t.Fatalf("expected paused at earliest, got %+v", f.State)
	}
	if !f.Indices.Equal(IndexMap{1: 0, 2: -1}) {
		t.Fatalf("unexpected indices %v", f.Indices)
	}

	if !p.Start() {
		t.Fatal("expected start")
	}
	var lastSeq uint64 = f.Seq
	last := waitFrame(t, ch, func(f Frame) bool {
		if f.Seq <= lastSeq {
			t.Fatalf("frames out of order: %d after %d", f.Seq, lastSeq)
		}
		lastSeq = f.Seq
		want := ResolveIndices(p.Tracks(), f.State.CurrentTime)
		if !f.Indices.Equal(want) {
			t.Fatalf("frame %d indices %v disagree with time %v", f.Seq, f.Indices, f.State.CurrentTime)
		}
		return !f.State.IsPlaying
	})
	if !last.State.CurrentTime.Equal(at(10)) {
		t.Errorf("expected to stop at the end, got %v", last.State.CurrentTime)
	}
	if !last.Indices.Equal(IndexMap{1: 2, 2: 1}) {
		t.Errorf("expected last indices at end, got %v", last.Indices)
	}
}

func TestPlayer_StartWithoutTracks(t *testing.T) {
	p := newTestPlayer(t)
	if p.Start() {
		t.Error("start without tracks should be a no-op")
	}
	if p.Seek(at(1)) {
		t.Error("seek without tracks should be a no-op")
	}
	if f := p.Frame(); f.State.HasTracks() || len(f.Indices) != 0 {
		t.Errorf("unexpected frame %+v", f)
	}
}

func TestPlayer_SingleTickSource(t *testing.T) {
	p := slowTestPlayer(t)
	if err := p.AddTracks(trackA()); err != nil {
		t.Fatal(err)
	}
	if !p.Start() {
		t.Fatal("expected start")
	}
	if p.Start() {
		t.Error("start while playing should not arm a second tick source")
	}
	p.mu.Lock()
	gen := p.generation
	p.mu.Unlock()

	// A tick from the armed generation advances the clock.
	if !p.tick(gen) {
		t.Fatal("expected the armed tick to keep playing")
	}
	if !p.State().CurrentTime.Equal(at(1)) {
		t.Fatalf("expected 1s, got %v", p.State().CurrentTime)
	}

	// After a pause, a tick carrying the old generation is a no-op.
	p.Pause()
	if p.tick(gen) {
		t.Error("stale tick should stop")
	}
	if !p.State().CurrentTime.Equal(at(1)) {
		t.Errorf("stale tick moved the clock to %v", p.State().CurrentTime)
	}

	// Re-arming invalidates the previous generation too.
	p.Start()
	if p.tick(gen) {
		t.Error("tick from a previous arming should be ignored")
	}
}

func TestPlayer_PauseCancelsTicks(t *testing.T) {
	p := newTestPlayer(t)
	if err := p.AddTracks(newTrack(1, 0, 3600)); err != nil {
		t.Fatal(err)
	}
	p.Start()
	time.Sleep(20 * time.Millisecond)
	p.Pause()
	paused := p.State()
	if paused.IsPlaying {
		t.Fatal("expected paused")
	}
	time.Sleep(20 * time.Millisecond)
	if !p.State().CurrentTime.Equal(paused.CurrentTime) {
		t.Errorf("clock moved after pause: %v -> %v", paused.CurrentTime, p.State().CurrentTime)
	}
}

func TestPlayer_RestartAndSeek(t *testing.T) {
	p := slowTestPlayer(t)
	if err := p.AddTracks(trackA(), trackB()); err != nil {
		t.Fatal(err)
	}
	p.Seek(at(6))
	f := p.Frame()
	if !f.Indices.Equal(IndexMap{1: 1, 2: 0}) {
		t.Errorf("at 6s expected {1:1 2:0}, got %v", f.Indices)
	}
	p.Seek(at(1))
	if f := p.Frame(); !f.Indices.Equal(IndexMap{1: 0, 2: -1}) {
		t.Errorf("at 1s expected {1:0 2:-1}, got %v", f.Indices)
	}

	p.Start()
	p.Restart()
	s := p.State()
	if s.IsPlaying || !s.CurrentTime.Equal(at(0)) {
		t.Errorf("restart: %+v", s)
	}
}

func TestPlayer_SetSpeed(t *testing.T) {
	p := slowTestPlayer(t)
	if err := p.SetSpeed(-2); err == nil {
		t.Error("expected error for negative speed")
	}
	if err := p.SetSpeed(4); err != nil {
		t.Fatal(err)
	}
	if err := p.AddTracks(trackA()); err != nil {
		t.Fatal(err)
	}
	p.Start()
	p.mu.Lock()
	gen := p.generation
	p.mu.Unlock()
	p.tick(gen)
	if !p.State().CurrentTime.Equal(at(4)) {
		t.Errorf("expected 4s after one tick at 4x, got %v", p.State().CurrentTime)
	}
}

func TestPlayer_AddTracksRecomputesBounds(t *testing.T) {
	p := slowTestPlayer(t)
	if err := p.AddTracks(trackB()); err != nil {
		t.Fatal(err)
	}
	s := p.State()
	if !s.EarliestTime.Equal(at(2)) || !s.LatestTime.Equal(at(8)) || !s.CurrentTime.Equal(at(2)) {
		t.Fatalf("unexpected bounds %+v", s)
	}
	p.Seek(at(5))
	if err := p.AddTracks(trackA()); err != nil {
		t.Fatal(err)
	}
	s = p.State()
	if !s.EarliestTime.Equal(at(0)) || !s.LatestTime.Equal(at(10)) {
		t.Errorf("bounds not widened %+v", s)
	}
	if !s.CurrentTime.Equal(at(5)) {
		t.Errorf("current time should be kept, got %v", s.CurrentTime)
	}
	if f := p.Frame(); !f.Indices.Equal(IndexMap{1: 1, 2: 0}) {
		t.Errorf("indices not recomputed: %v", f.Indices)
	}
}

func TestPlayer_Reset(t *testing.T) {
	p := newTestPlayer(t)
	if err := p.AddTracks(newTrack(1, 0, 3600)); err != nil {
		t.Fatal(err)
	}
	p.Start()
	p.Reset()
	f := p.Frame()
	if f.State.HasTracks() || f.State.IsPlaying || len(f.Indices) != 0 || len(p.Tracks()) != 0 {
		t.Errorf("unexpected frame after reset %+v", f)
	}
	time.Sleep(10 * time.Millisecond)
	if p.State().HasTracks() {
		t.Error("a tick ran after reset")
	}
}

func TestPlayer_CloseStopsTicker(t *testing.T) {
	p, err := NewPlayer(params.DefaultTestPlaybackConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.AddTracks(newTrack(1, 0, 3600)); err != nil {
		t.Fatal(err)
	}
	p.Start()
	p.Close()
	s := p.State()
	time.Sleep(10 * time.Millisecond)
	if !p.State().CurrentTime.Equal(s.CurrentTime) || p.State().IsPlaying {
		t.Error("clock moved after close")
	}
	if p.Start() {
		t.Error("start after close should be a no-op")
	}
}

func TestPlayer_Metrics(t *testing.T) {
	p := slowTestPlayer(t)
	if err := p.AddTracks(trackA()); err != nil {
		t.Fatal(err)
	}
	p.Start()
	p.mu.Lock()
	gen := p.generation
	p.mu.Unlock()
	p.tick(gen)
	if n := p.frames.Snapshot().Count(); n != 3 {
		t.Errorf("expected 3 frames (add, start, tick), got %d", n)
	}
	if n := p.ticks.Snapshot().Count(); n != 1 {
		t.Errorf("expected 1 tick, got %d", n)
	}
	found := 0
	p.Metrics().Each(func(name string, _ interface{}) {
		found++
	})
	if found != 2 {
		t.Errorf("expected 2 registered metrics, got %d", found)
	}
}

func TestPlayer_LogMetrics(t *testing.T) {
	defer common.SlogResetLevel(slog.Level(slog.LevelWarn + 1))()
	p := newTestPlayer(t)
	if err := p.AddTracks(trackA()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.LogMetrics(ctx, time.Millisecond)
		close(done)
	}()
	p.Start()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("LogMetrics did not return after cancel")
	}
}

func TestNewPlayer_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*params.PlaybackConfig)
		want   error
	}{
		{"zero interval", func(c *params.PlaybackConfig) { c.Interval = 0 }, params.ErrInvalidInterval},
		{"negative interval", func(c *params.PlaybackConfig) { c.Interval = -time.Second }, params.ErrInvalidInterval},
		{"zero time scale", func(c *params.PlaybackConfig) { c.TimeScale = 0 }, params.ErrInvalidTimeScale},
		{"nan time scale", func(c *params.PlaybackConfig) { c.TimeScale = math.NaN() }, params.ErrInvalidTimeScale},
		{"inf time scale", func(c *params.PlaybackConfig) { c.TimeScale = math.Inf(1) }, params.ErrInvalidTimeScale},
		{"negative preset", func(c *params.PlaybackConfig) { c.Speeds = []float64{1, -2} }, params.ErrInvalidSpeeds},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := params.DefaultTestPlaybackConfig()
			c.mutate(cfg)
			p, err := NewPlayer(cfg)
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
			if p != nil {
				t.Error("expected no player")
			}
		})
	}
}
