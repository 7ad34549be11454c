package playback

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/trackplay/common"
)

// LogMetrics logs tick and frame counts every interval until ctx is done.
// Nothing is logged while playback is idle.
func (p *Player) LogMetrics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	started := time.Now()
	var lastFrames int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frames := p.frames.Snapshot().Count()
			if frames == lastFrames {
				continue
			}
			lastFrames = frames
			p.logMetrics(started)
		}
	}
}

func (p *Player) logMetrics(started time.Time) {
	ticks := p.ticks.Snapshot()
	st := p.State()
	p.logger.LogAttrs(context.Background(), slog.LevelInfo, "Playback",
		slog.String("ticks", humanize.Comma(ticks.Count())),
		slog.Float64("tps", common.DecimalToFixed(ticks.Rate1(), 1)),
		slog.String("frames", humanize.Comma(p.frames.Snapshot().Count())),
		slog.Bool("playing", st.IsPlaying),
		slog.Float64("speed", st.SpeedMultiplier),
		slog.Float64("progress", common.DecimalToFixed(st.Progress(), 3)),
		slog.Duration("running", time.Since(started).Round(time.Second)))
}
