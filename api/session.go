package api

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/trackplay/cache"
	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/events"
	"github.com/rotblauer/trackplay/geo/bearing"
	"github.com/rotblauer/trackplay/geo/profile"
	"github.com/rotblauer/trackplay/ingest"
	"github.com/rotblauer/trackplay/params"
	"github.com/rotblauer/trackplay/playback"
	"github.com/rotblauer/trackplay/types/marker"
	"github.com/rotblauer/trackplay/types/track"
	"github.com/rotblauer/trackplay/view"
)

var (
	ErrTrackNotFound  = errors.New("track not found")
	ErrMarkerNotFound = errors.New("marker not found")
)

// Session is the single playback session of a process.
// It owns the loaded tracks (through its Player), the markers, and id assignment.
type Session struct {
	config *params.PlaybackConfig
	logger *slog.Logger

	ingester   *ingest.Ingester
	player     *playback.Player
	profiles   *profile.Cache
	Declinator bearing.Declinator

	// loadMu serializes loads so ids follow file order across concurrent uploads.
	loadMu sync.Mutex

	mu           sync.Mutex
	nextTrackID  conceptual.TrackID
	nextMarkerID conceptual.MarkerID
	markers      marker.Markers
}

func NewSession(config *params.PlaybackConfig) (*Session, error) {
	if config == nil {
		config = params.DefaultPlaybackConfig()
	}
	player, err := playback.NewPlayer(config)
	if err != nil {
		return nil, err
	}
	profiles, err := profile.NewCache(params.ProfileCacheSize)
	if err != nil {
		return nil, err
	}
	return &Session{
		config:       config,
		logger:       slog.With("d", "session"),
		ingester:     ingest.NewIngester(),
		player:       player,
		profiles:     profiles,
		Declinator:   bearing.DefaultDeclinator,
		nextTrackID:  1,
		nextMarkerID: 1,
	}, nil
}

// Ingester exposes the ingester, eg. to replace its color source.
func (s *Session) Ingester() *ingest.Ingester {
	return s.ingester
}

func (s *Session) Player() *playback.Player {
	return s.player
}

// Close stops playback and waits for the tick source to exit.
func (s *Session) Close() {
	s.player.Close()
}

// Reset discards every track. Markers are kept.
func (s *Session) Reset() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.player.Reset()
	s.profiles.Purge()
	s.logger.Info("Session reset", "etags", cache.ForgetETags())
	s.alert(events.NewAlert(events.AlertInfo, "", "All tracks cleared"))
}

func (s *Session) alert(a events.Alert) {
	cache.StoreAlert(a)
	events.AlertFeed.Send(a)
}

// Playback controls delegate to the player.

func (s *Session) Start() bool {
	return s.player.Start()
}

func (s *Session) Pause() {
	s.player.Pause()
}

func (s *Session) Restart() {
	s.player.Restart()
}

func (s *Session) Seek(t time.Time) bool {
	return s.player.Seek(t)
}

func (s *Session) SetSpeed(m float64) error {
	return s.player.SetSpeed(m)
}

// Speeds are the multipliers offered to clients.
func (s *Session) Speeds() []float64 {
	return s.config.Speeds
}

func (s *Session) Subscribe(ch chan<- playback.Frame) event.Subscription {
	return s.player.Subscribe(ch)
}

// Read projections.

func (s *Session) Frame() playback.Frame {
	return s.player.Frame()
}

func (s *Session) Tracks() track.Tracks {
	return s.player.Tracks()
}

func (s *Session) Track(id conceptual.TrackID) (*track.Track, error) {
	for _, t := range s.player.Tracks() {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ErrTrackNotFound
}

func (s *Session) Profile(id conceptual.TrackID) (*profile.Profile, error) {
	t, err := s.Track(id)
	if err != nil {
		return nil, err
	}
	return s.profiles.Get(t), nil
}

func (s *Session) MapView() *view.Map {
	frame, tracks := s.player.Snapshot()
	return view.MapView(tracks, s.Markers(), frame.Indices)
}

func (s *Session) Readouts() []view.Readout {
	frame, tracks := s.player.Snapshot()
	return view.Readouts(tracks, s.Markers(), frame.Indices, s.Declinator)
}
