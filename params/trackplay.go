package params

import (
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/mitchellh/go-homedir"
)

func init() {
	metrics.Enabled = true
}

const (
	ConfigFileName = "trackplay"
	EnvPrefix      = "TRACKPLAY"
)

var (
	CacheRecentAlertsTTL      = 10 * time.Minute
	CacheRecentAlertsCapacity = uint64(100)

	// ProfileCacheSize bounds the number of per-track elevation profiles kept.
	ProfileCacheSize = 256
)

// MaxUploadBytes caps a single multipart upload.
var MaxUploadBytes int64 = 64 << 20

// DatadirRoot is where the default config file is looked for.
var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".trackplay"
	}
	return filepath.Join(home, ".trackplay")
}()
