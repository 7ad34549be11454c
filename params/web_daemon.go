package params

import (
	"time"

	"golang.org/x/time/rate"
)

type WebDaemonConfig struct {
	ListenerConfig
	Playback *PlaybackConfig

	// UploadRate and UploadBurst limit POST /tracks across all clients.
	UploadRate  rate.Limit
	UploadBurst int

	ShutdownTimeout time.Duration

	// MetricsLogInterval is how often playback metrics are logged; zero disables it.
	MetricsLogInterval time.Duration
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		ListenerConfig:  DefaultWebListenerConfig(),
		Playback:        DefaultPlaybackConfig(),
		UploadRate:      rate.Every(time.Second),
		UploadBurst:     5,
		ShutdownTimeout: 5 * time.Second,

		MetricsLogInterval: time.Minute,
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: "localhost:3333",
		},
		Playback:        DefaultTestPlaybackConfig(),
		UploadRate:      rate.Inf,
		UploadBurst:     1,
		ShutdownTimeout: time.Second,
	}
}
