package webd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/gorilla/mux"
	"github.com/rotblauer/trackplay/api"
	"github.com/rotblauer/trackplay/cache"
	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/ingest"
	"github.com/rotblauer/trackplay/params"
	"github.com/rotblauer/trackplay/playback"
	"github.com/rotblauer/trackplay/types/track"
)

var (
	errInvalidBody     = errors.New("invalid request body")
	errInvalidSeekTime = errors.New("seek requires an RFC3339 time or unix_ms")
	errNoTracks        = errors.New("no tracks loaded")
	errNoFiles         = errors.New("no files uploaded")
	errTooManyRequests = errors.New("too many requests")
	errSessionClosed   = errors.New("session closed")
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func (s *WebDaemon) writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type metricStatus struct {
	Count int64   `json:"count"`
	Rate1 float64 `json:"rate1,omitempty"`
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Started   string                  `json:"started"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
	Tracks    int                     `json:"tracks"`
	Markers   int                     `json:"markers"`
	Metrics   map[string]metricStatus `json:"metrics"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Started:   humanize.Time(s.started),
		Config:    s.Config,
		WSOpen:    s.melodyInstance != nil && !s.melodyInstance.IsClosed(),
		Tracks:    len(s.Session.Tracks()),
		Markers:   len(s.Session.Markers()),
		Metrics:   map[string]metricStatus{},
	}
	if s.melodyInstance != nil {
		st.WSConns = s.melodyInstance.Len()
	}
	s.Session.Player().Metrics().Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Meter:
			snap := m.Snapshot()
			st.Metrics[name] = metricStatus{Count: snap.Count(), Rate1: snap.Rate1()}
		case metrics.Counter:
			st.Metrics[name] = metricStatus{Count: m.Snapshot().Count()}
		}
	})
	j, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal status", "error", err)
		http.Error(w, "Failed to marshal status", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(j); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func getRequestTrackID(r *http.Request) (conceptual.TrackID, error) {
	return conceptual.ParseTrackID(mux.Vars(r)["id"])
}

func (s *WebDaemon) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks := s.Session.Tracks()
	out := make([]track.Summary, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.Summary())
	}
	s.writeJSON(w, out)
}

func (s *WebDaemon) handleResetTracks(w http.ResponseWriter, r *http.Request) {
	s.Session.Reset()
	s.writeJSON(w, s.Session.Frame())
}

// handleGetTrack serves a track with its points. Tracks never change, so the ETag is stable.
func (s *WebDaemon) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	id, err := getRequestTrackID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.Session.Track(id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err)
		return
	}
	tag, err := cache.ETag(fmt.Sprintf("track/%d", t.ID), t)
	if err != nil {
		s.logger.Warn("Failed to hash track", "track", t.ID, "error", err)
	} else {
		w.Header().Set("ETag", tag)
		if r.Header.Get("If-None-Match") == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	s.writeJSON(w, t)
}

func (s *WebDaemon) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := getRequestTrackID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	p, err := s.Session.Profile(id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, p)
}

// handleUploadTracks accepts a multipart form with one or more "files" parts.
// Each file succeeds or fails on its own; the response lists every outcome.
func (s *WebDaemon) handleUploadTracks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, params.MaxUploadBytes)
	if err := r.ParseMultipartForm(params.MaxUploadBytes); err != nil {
		s.logger.Warn("Failed to parse upload", "error", err)
		writeJSONError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSONError(w, http.StatusBadRequest, errNoFiles)
		return
	}
	files := make([]ingest.File, 0, len(headers))
	var size int64
	for _, fh := range headers {
		size += fh.Size
		f, err := fh.Open()
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Content: content})
	}
	s.logger.Info("Received upload", "files", len(files), "bytes", humanize.Bytes(uint64(size)))

	results := s.Session.LoadFiles(files)
	s.writeJSON(w, struct {
		Results []api.LoadResult `json:"results"`
		Frame   playback.Frame   `json:"frame"`
	}{results, s.Session.Frame()})
}

func (s *WebDaemon) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, struct {
		playback.Frame
		Speeds []float64 `json:"speeds"`
	}{s.Session.Frame(), s.Session.Speeds()})
}

func (s *WebDaemon) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.start(); err != nil {
		s.writeControlError(w, err)
		return
	}
	s.writeJSON(w, s.Session.Frame())
}

func (s *WebDaemon) handlePause(w http.ResponseWriter, r *http.Request) {
	s.Session.Pause()
	s.writeJSON(w, s.Session.Frame())
}

func (s *WebDaemon) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.Session.Restart()
	s.writeJSON(w, s.Session.Frame())
}

func (s *WebDaemon) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err)
		return nil, false
	}
	return body, true
}

func (s *WebDaemon) handleSeek(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := s.applyControl(withAction(body, websocketActionSeek)); err != nil {
		s.writeControlError(w, err)
		return
	}
	s.writeJSON(w, s.Session.Frame())
}

func (s *WebDaemon) handleSpeed(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := s.applyControl(withAction(body, websocketActionSpeed)); err != nil {
		s.writeControlError(w, err)
		return
	}
	s.writeJSON(w, s.Session.Frame())
}

func (s *WebDaemon) writeControlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNoTracks):
		writeJSONError(w, http.StatusConflict, err)
	case errors.Is(err, errSessionClosed):
		writeJSONError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSONError(w, http.StatusBadRequest, err)
	}
}

// withAction merges an action into a JSON object body so HTTP and websocket controls share one path.
func withAction(body []byte, action websocketAction) []byte {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &m); err != nil {
		return body
	}
	m["action"], _ = json.Marshal(action)
	b, _ := json.Marshal(m)
	return b
}

func (s *WebDaemon) handleMap(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Session.MapView())
}

func (s *WebDaemon) handleReadouts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Session.Readouts())
}

func (s *WebDaemon) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Session.Markers())
}

type addMarkerRequest struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

func (s *WebDaemon) handleAddMarker(w http.ResponseWriter, r *http.Request) {
	req := addMarkerRequest{}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeJSONError(w, http.StatusBadRequest, errors.New("lat and lng are required"))
		return
	}
	m, err := s.Session.AddMarker(req.Name, *req.Lat, *req.Lng)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	s.writeJSON(w, m)
}

func (s *WebDaemon) handleAddBullsEye(w http.ResponseWriter, r *http.Request) {
	m := s.Session.AddBullsEye()
	w.WriteHeader(http.StatusCreated)
	s.writeJSON(w, m)
}

func (s *WebDaemon) handleRemoveMarker(w http.ResponseWriter, r *http.Request) {
	id, err := conceptual.ParseMarkerID(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Session.RemoveMarker(id); err != nil {
		if errors.Is(err, api.ErrMarkerNotFound) {
			writeJSONError(w, http.StatusNotFound, err)
			return
		}
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, s.Session.Markers())
}
