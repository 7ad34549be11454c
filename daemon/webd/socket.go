package webd

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/olahol/melody"
	"github.com/rotblauer/trackplay/cache"
	"github.com/rotblauer/trackplay/events"
	"github.com/rotblauer/trackplay/playback"
	"github.com/tidwall/gjson"
)

type websocketAction string

const (
	websocketActionFrame   websocketAction = "frame"
	websocketActionAlert   websocketAction = "alert"
	websocketActionMarkers websocketAction = "markers"
	websocketActionError   websocketAction = "error"

	websocketActionStart   websocketAction = "start"
	websocketActionPause   websocketAction = "pause"
	websocketActionRestart websocketAction = "restart"
	websocketActionSeek    websocketAction = "seek"
	websocketActionSpeed   websocketAction = "speed"
)

var errUnknownAction = errors.New("unknown action")

type broadcast struct {
	Action  websocketAction       `json:"action"`
	Frame   *playback.Frame       `json:"frame,omitempty"`
	Alert   *events.Alert         `json:"alert,omitempty"`
	Markers *events.MarkersChange `json:"markers,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// initMelody sets up the websocket hub and starts relaying session events to it.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	// New clients get the current frame and the recent alerts.
	s.melodyInstance.HandleConnect(func(ms *melody.Session) {
		s.logger.Info("Websocket connected", "remote", ms.Request.RemoteAddr)
		frame := s.Session.Frame()
		s.write(ms, broadcast{Action: websocketActionFrame, Frame: &frame})
		for _, a := range cache.RecentAlertsSorted() {
			a := a
			s.write(ms, broadcast{Action: websocketActionAlert, Alert: &a})
		}
	})

	s.melodyInstance.HandleMessage(s.handleSocketMessage)

	s.melodyInstance.HandleDisconnect(func(ms *melody.Session) {
		s.logger.Info("Websocket disconnected", "remote", ms.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(ms *melody.Session, e error) {
		s.logger.Warn("Websocket error", "error", e, "remote", ms.Request.RemoteAddr)
	})

	frames := make(chan playback.Frame, 64)
	framesSub := s.Session.Subscribe(frames)
	alerts := make(chan events.Alert, 16)
	alertsSub := events.AlertFeed.Subscribe(alerts)
	markers := make(chan events.MarkersChange, 16)
	markersSub := events.MarkersFeed.Subscribe(markers)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer framesSub.Unsubscribe()
		defer alertsSub.Unsubscribe()
		defer markersSub.Unsubscribe()
		for {
			select {
			case <-s.quit:
				return
			case f := <-frames:
				s.broadcast(broadcast{Action: websocketActionFrame, Frame: &f})
			case a := <-alerts:
				s.broadcast(broadcast{Action: websocketActionAlert, Alert: &a})
			case m := <-markers:
				s.broadcast(broadcast{Action: websocketActionMarkers, Markers: &m})
			case err := <-framesSub.Err():
				s.logger.Error("Frame subscription failed", "error", err)
				return
			}
		}
	}()
}

func (s *WebDaemon) broadcast(bc broadcast) {
	if s.melodyInstance.IsClosed() {
		return
	}
	b, err := json.Marshal(bc)
	if err != nil {
		s.logger.Error("Failed to marshal broadcast", "action", bc.Action, "error", err)
		return
	}
	if err := s.melodyInstance.Broadcast(b); err != nil {
		s.logger.Warn("Failed to broadcast", "action", bc.Action, "error", err)
	}
}

func (s *WebDaemon) write(ms *melody.Session, bc broadcast) {
	b, err := json.Marshal(bc)
	if err != nil {
		s.logger.Error("Failed to marshal message", "action", bc.Action, "error", err)
		return
	}
	if err := ms.Write(b); err != nil {
		s.logger.Warn("Failed to write message", "action", bc.Action, "error", err)
	}
}

// handleSocketMessage applies a playback control message from a client.
// The resulting frame reaches every client through the broadcast.
func (s *WebDaemon) handleSocketMessage(ms *melody.Session, msg []byte) {
	if err := s.applyControl(msg); err != nil {
		s.logger.Warn("Rejected websocket message", "error", err, "message", string(msg))
		s.write(ms, broadcast{Action: websocketActionError, Error: err.Error()})
	}
}

func (s *WebDaemon) applyControl(msg []byte) error {
	if !gjson.ValidBytes(msg) {
		return errInvalidBody
	}
	switch websocketAction(gjson.GetBytes(msg, "action").String()) {
	case websocketActionStart:
		return s.start()
	case websocketActionPause:
		s.Session.Pause()
	case websocketActionRestart:
		s.Session.Restart()
	case websocketActionSeek:
		t, err := seekTime(gjson.GetBytes(msg, "time"), gjson.GetBytes(msg, "unix_ms"))
		if err != nil {
			return err
		}
		if !s.Session.Seek(t) {
			return s.whyNot()
		}
	case websocketActionSpeed:
		speed := gjson.GetBytes(msg, "speed")
		if speed.Type != gjson.Number {
			return errInvalidBody
		}
		return s.Session.SetSpeed(speed.Float())
	default:
		return errUnknownAction
	}
	return nil
}

// start starts playback. Starting while already playing is not an error.
func (s *WebDaemon) start() error {
	if s.Session.Start() || s.Session.Frame().State.IsPlaying {
		return nil
	}
	return s.whyNot()
}

// whyNot names the reason a playback control was refused.
func (s *WebDaemon) whyNot() error {
	if s.Session.Player().Closed() {
		return errSessionClosed
	}
	if !s.Session.Frame().State.HasTracks() {
		return errNoTracks
	}
	return errInvalidBody
}

// seekTime reads a seek target given either as RFC3339 or as unix milliseconds.
func seekTime(rfc3339, unixMillis gjson.Result) (time.Time, error) {
	if rfc3339.Exists() && rfc3339.Type == gjson.String {
		t, err := time.Parse(time.RFC3339, rfc3339.String())
		if err != nil {
			return time.Time{}, errInvalidSeekTime
		}
		return t, nil
	}
	if unixMillis.Exists() && unixMillis.Type == gjson.Number {
		return time.UnixMilli(unixMillis.Int()).UTC(), nil
	}
	return time.Time{}, errInvalidSeekTime
}
