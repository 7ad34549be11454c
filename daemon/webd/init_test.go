package webd

import (
	"testing"

	"github.com/rotblauer/trackplay/params"
)

// newTestWebDaemon creates a WebDaemon with a fast test clock and its router.
// The daemon is closed when the test ends.
func newTestWebDaemon(t *testing.T, configure ...func(*params.WebDaemonConfig)) *WebDaemon {
	t.Helper()
	config := params.DefaultTestWebDaemonConfig()
	for _, fn := range configure {
		fn(config)
	}
	daemon, err := NewWebDaemon(config)
	if err != nil {
		t.Fatal(err)
	}
	daemon.Session.Ingester().Color = func() string { return "#0000FF" }
	t.Cleanup(daemon.Close)
	return daemon
}
