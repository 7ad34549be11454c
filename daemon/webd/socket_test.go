package webd

import (
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rotblauer/trackplay/common"
	"github.com/rotblauer/trackplay/ingest"
	"github.com/rotblauer/trackplay/testing/testdata"
	"github.com/tidwall/gjson"
)

func loadScenario(t *testing.T, d *WebDaemon) {
	t.Helper()
	d.Session.LoadFiles([]ingest.File{
		{Name: "track_a.gpx", Content: testdata.MustRead(testdata.Source_TrackA)},
		{Name: "track_b.gpx", Content: testdata.MustRead(testdata.Source_TrackB)},
	})
}

func TestWebDaemon_applyControl(t *testing.T) {
	defer common.SlogResetLevel(slog.Level(slog.LevelError + 1))()
	d := newTestWebDaemon(t)

	if err := d.applyControl([]byte(`{"action":"start"}`)); err != errNoTracks {
		t.Errorf("start without tracks: expected errNoTracks, got %v", err)
	}
	if err := d.applyControl([]byte(`{"action":"dance"}`)); err != errUnknownAction {
		t.Errorf("expected errUnknownAction, got %v", err)
	}
	if err := d.applyControl([]byte(`not json`)); err != errInvalidBody {
		t.Errorf("expected errInvalidBody, got %v", err)
	}

	loadScenario(t, d)
	if err := d.applyControl([]byte(`{"action":"seek","time":"2024-06-01T10:00:06Z"}`)); err != nil {
		t.Fatal(err)
	}
	if got := d.Session.Frame().Indices; got[1] != 1 || got[2] != 0 {
		t.Errorf("unexpected indices %v", got)
	}
	if err := d.applyControl([]byte(`{"action":"speed","speed":"fast"}`)); err != errInvalidBody {
		t.Errorf("expected errInvalidBody, got %v", err)
	}
	if err := d.applyControl([]byte(`{"action":"speed","speed":0.5}`)); err != nil {
		t.Fatal(err)
	}
	if d.Session.Frame().State.SpeedMultiplier != 0.5 {
		t.Error("speed not applied")
	}
	if err := d.applyControl([]byte(`{"action":"seek"}`)); err != errInvalidSeekTime {
		t.Errorf("expected errInvalidSeekTime, got %v", err)
	}
	if err := d.applyControl([]byte(`{"action":"restart"}`)); err != nil {
		t.Fatal(err)
	}
	if !d.Session.Frame().State.CurrentTime.Equal(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)) {
		t.Error("restart did not rewind")
	}
}

func TestWebDaemon_socket(t *testing.T) {
	defer common.SlogResetLevel(slog.Level(slog.LevelError + 1))()
	d := newTestWebDaemon(t)
	loadScenario(t, d)
	srv := httptest.NewServer(d.NewRouter())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	read := func() []byte {
		t.Helper()
		if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			t.Fatal(err)
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		return msg
	}

	first := read()
	if gjson.GetBytes(first, "action").String() != "frame" {
		t.Fatalf("expected the current frame on connect, got %s", first)
	}
	if gjson.GetBytes(first, "frame.indices.1").Int() != 0 {
		t.Errorf("unexpected initial frame %s", first)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"seek","unix_ms":1717236006000}`)); err != nil {
		t.Fatal(err)
	}
	for {
		msg := read()
		if gjson.GetBytes(msg, "action").String() != "frame" {
			continue
		}
		if gjson.GetBytes(msg, "frame.state.current.unix_ms").Int() != 1717236006000 {
			continue
		}
		if gjson.GetBytes(msg, "frame.indices.1").Int() != 1 || gjson.GetBytes(msg, "frame.indices.2").Int() != 0 {
			t.Errorf("unexpected frame %s", msg)
		}
		break
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"dance"}`)); err != nil {
		t.Fatal(err)
	}
	for {
		msg := read()
		if gjson.GetBytes(msg, "action").String() == "error" {
			if !strings.Contains(gjson.GetBytes(msg, "error").String(), "unknown action") {
				t.Errorf("unexpected error %s", msg)
			}
			break
		}
	}
}
