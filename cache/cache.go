package cache

import (
	"fmt"
	"sort"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/jellydator/ttlcache/v3"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/trackplay/events"
	"github.com/rotblauer/trackplay/params"
)

// RecentAlerts holds alerts replayed to websocket clients when they connect.
var RecentAlerts = ttlcache.New[string, events.Alert](
	ttlcache.WithTTL[string, events.Alert](params.CacheRecentAlertsTTL),
	ttlcache.WithCapacity[string, events.Alert](params.CacheRecentAlertsCapacity))

func StoreAlert(a events.Alert) {
	key := fmt.Sprintf("%d/%s/%s", a.Time.UnixNano(), a.File, a.Message)
	RecentAlerts.Set(key, a, ttlcache.DefaultTTL)
}

// RecentAlertsSorted returns the unexpired alerts, oldest first.
func RecentAlertsSorted() []events.Alert {
	items := RecentAlerts.Items()
	out := make([]events.Alert, 0, len(items))
	for _, item := range items {
		if item.IsExpired() {
			continue
		}
		out = append(out, item.Value())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

var (
	etagMu    sync.Mutex
	etagCache = lru.New(1_024)
)

// ETag returns a strong entity tag for v, memoized under key.
// Values cached under a key must be immutable.
func ETag(key string, v any) (string, error) {
	etagMu.Lock()
	defer etagMu.Unlock()
	if tag, ok := etagCache.Get(key); ok {
		return tag.(string), nil
	}
	hash, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	tag := fmt.Sprintf(`"%x"`, hash)
	etagCache.Add(key, tag)
	return tag, nil
}

// ForgetETags drops every memoized tag and returns how many there were.
func ForgetETags() int {
	etagMu.Lock()
	defer etagMu.Unlock()
	n := etagCache.Len()
	etagCache.Clear()
	return n
}
