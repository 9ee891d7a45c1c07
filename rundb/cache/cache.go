package cache

import (
	"fmt"

	"github.com/golang/groupcache/lru"
	"github.com/jellydator/ttlcache/v3"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/fleetd/conceptual"
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/types/runtrack"
)

// LastKnown is a vehicle's latest reported position.
type LastKnown struct {
	VehicleID conceptual.VehicleID   `json:"vehicleId"`
	RunID     conceptual.RunID       `json:"runId"`
	Point     runtrack.LocationPoint `json:"point"`
}

var LastKnownTTLCache = ttlcache.New[conceptual.VehicleID, LastKnown](
	ttlcache.WithTTL[conceptual.VehicleID, LastKnown](params.CacheLastKnownTTL))

// SetLastKnownTTL records p for the vehicle unless a newer position is already cached.
func SetLastKnownTTL(vehicle conceptual.VehicleID, run conceptual.RunID, p runtrack.LocationPoint) {
	if item := LastKnownTTLCache.Get(vehicle); item != nil && item.Value().Point.Time.After(p.Time) {
		return
	}
	LastKnownTTLCache.Set(vehicle, LastKnown{VehicleID: vehicle, RunID: run, Point: p}, ttlcache.DefaultTTL)
}

func GetLastKnown(vehicle conceptual.VehicleID) (LastKnown, bool) {
	item := LastKnownTTLCache.Get(vehicle)
	if item == nil {
		return LastKnown{}, false
	}
	return item.Value(), true
}

// LastRouteTTLCache holds the last broadcast route view per run, encoded,
// so new websocket clients can be brought up to date on connect.
var LastRouteTTLCache = ttlcache.New[conceptual.RunID, []byte](
	ttlcache.WithTTL[conceptual.RunID, []byte](params.CacheRouteViewTTL))

// NewDedupePassLRUFunc returns a predicate that passes each distinct
// location point once, remembering the most recent params.DefaultPingDedupeSize.
// Clients resend pings after flaky uploads.
func NewDedupePassLRUFunc() func(runtrack.LocationPoint) bool {
	var dedupeCache = lru.New(params.DefaultPingDedupeSize)
	return func(p runtrack.LocationPoint) bool {
		hash, err := hashstructure.Hash(struct {
			Lon, Lat float64
			UnixNano int64
		}{p.Lon(), p.Lat(), p.Time.UnixNano()}, hashstructure.FormatV2, nil)
		if err != nil {
			return false
		}
		key := fmt.Sprintf("%d", hash)
		if _, ok := dedupeCache.Get(key); ok {
			return false
		}
		dedupeCache.Add(key, true)
		return true
	}
}
