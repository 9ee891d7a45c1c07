// Package simplify thins dense point sequences into light overview paths.
package simplify

import (
	"github.com/paulmach/orb"
	"github.com/rotblauer/fleetd/common"
	"github.com/rotblauer/fleetd/types/runtrack"
)

// Route keeps the first point, then every point farther than minSpacingKm
// from the last kept point. The last point is always kept so the path ends
// at the vehicle's true final position.
// Fewer than two points are returned as coordinates unchanged.
func Route(points []runtrack.LocationPoint, minSpacingKm float64) orb.LineString {
	if len(points) < 2 {
		return runtrack.LineString(points)
	}
	out := orb.LineString{points[0].Point}
	lastKept := 0
	for i := 1; i < len(points); i++ {
		if common.HaversineKm(points[lastKept].Point, points[i].Point) > minSpacingKm {
			out = append(out, points[i].Point)
			lastKept = i
		}
	}
	if lastKept != len(points)-1 {
		out = append(out, points[len(points)-1].Point)
	}
	return out
}
