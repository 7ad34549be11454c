package events

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/trackplay/conceptual"
	"github.com/rotblauer/trackplay/types/marker"
)

type AlertLevel string

const (
	AlertInfo  AlertLevel = "info"
	AlertWarn  AlertLevel = "warn"
	AlertError AlertLevel = "error"
)

// Alert is a user-visible notification, eg. a file that could not be loaded.
type Alert struct {
	Level   AlertLevel `json:"level"`
	File    string     `json:"file,omitempty"`
	Message string     `json:"message"`
	Time    time.Time  `json:"time"`
}

func NewAlert(level AlertLevel, file, message string) Alert {
	return Alert{Level: level, File: file, Message: message, Time: time.Now().UTC()}
}

func (a Alert) String() string {
	if a.File == "" {
		return fmt.Sprintf("[%s] %s", a.Level, a.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", a.Level, a.File, a.Message)
}

// AlertFeed is emitted for every alert raised by the session.
// Alerts are published after the operation that raised them has been applied.
var AlertFeed = event.FeedOf[Alert]{}

// MarkersChange describes an edit to the marker set.
type MarkersChange struct {
	Added   *marker.Marker      `json:"added,omitempty"`
	Removed conceptual.MarkerID `json:"removed,omitempty"`
}

// MarkersFeed is emitted whenever markers are added or removed.
var MarkersFeed = event.FeedOf[MarkersChange]{}
