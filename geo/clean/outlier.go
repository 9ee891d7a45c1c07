package clean

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/fleetd/common"
	"github.com/rotblauer/fleetd/types/runtrack"
)

var outliersRejected = metrics.GetOrRegisterCounter("clean/outliers/rejected", nil)

// OutlierFilter drops GPS points that jump implausibly far
// from the last point it accepted.
// Rejection always compares against the last *accepted* point,
// so one bad fix cannot become the anchor for the points after it.
type OutlierFilter struct {
	MaxDistanceKm float64
	Accepted      int
	Rejected      int

	last *runtrack.LocationPoint
}

func NewOutlierFilter(maxDistanceKm float64) *OutlierFilter {
	return &OutlierFilter{MaxDistanceKm: maxDistanceKm}
}

// Accept reports whether p is plausible. Accepted points become the new anchor.
// The first point is always accepted.
func (f *OutlierFilter) Accept(p runtrack.LocationPoint) bool {
	if f.last == nil {
		f.last = &p
		f.Accepted++
		return true
	}
	dist := common.HaversineKm(f.last.Point, p.Point)
	if dist <= f.MaxDistanceKm {
		f.last = &p
		f.Accepted++
		return true
	}
	f.Rejected++
	outliersRejected.Inc(1)
	slog.Warn("Outlier rejected",
		"distance_km", common.DecimalToFixed(dist, 2),
		"max_km", f.MaxDistanceKm,
		"time", p.Time)
	return false
}

// Stream filters a time-ordered channel of points.
func (f *OutlierFilter) Stream(ctx context.Context, in <-chan runtrack.LocationPoint) <-chan runtrack.LocationPoint {
	out := make(chan runtrack.LocationPoint)
	go func() {
		defer close(out)
		for p := range in {
			if !f.Accept(p) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- p:
			}
		}
	}()
	return out
}

// FilterOutliers returns the plausible subsequence of time-ordered points.
// Inputs shorter than two points are returned as they are.
func FilterOutliers(points []runtrack.LocationPoint, maxDistanceKm float64) []runtrack.LocationPoint {
	if len(points) < 2 {
		return points
	}
	f := NewOutlierFilter(maxDistanceKm)
	out := make([]runtrack.LocationPoint, 0, len(points))
	for _, p := range points {
		if f.Accept(p) {
			out = append(out, p)
		}
	}
	return out
}
