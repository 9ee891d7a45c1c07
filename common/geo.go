package common

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean Earth radius used for all fleet distances.
// Note that orb/geo.Distance uses a different radius (and meters).
const EarthRadiusKm = 6371.0

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}

// HaversineKm returns the great-circle distance in kilometers between two
// (longitude, latitude) points, in degrees.
// NaN inputs give NaN.
func HaversineKm(a, b orb.Point) float64 {
	dLat := degToRad(b.Lat() - a.Lat())
	dLon := degToRad(b.Lon() - a.Lon())
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degToRad(a.Lat()))*math.Cos(degToRad(b.Lat()))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}
