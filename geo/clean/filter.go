package clean

import (
	"math"

	"github.com/rotblauer/fleetd/types/runtrack"
)

// FilterValidCoordinates filters out points whose coordinates are not on Earth.
func FilterValidCoordinates(p runtrack.LocationPoint) bool {
	lat, lon := p.Lat(), p.Lon()
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// FilterNullIsland filters out (0, 0) fixes, which clients send
// when they have no position yet.
func FilterNullIsland(p runtrack.LocationPoint) bool {
	return p.Lat() != 0 || p.Lon() != 0
}

// FilterTimestamped filters out points without a time.
func FilterTimestamped(p runtrack.LocationPoint) bool {
	return !p.Time.IsZero()
}

// FilterIngest is the conjunction of the filters applied to incoming pings.
func FilterIngest(p runtrack.LocationPoint) bool {
	return FilterValidCoordinates(p) && FilterNullIsland(p) && FilterTimestamped(p)
}
