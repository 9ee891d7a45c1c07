// Package segment partitions a run's location history into legs,
// one per reached stop: the travel leading to the stop plus the dwell at it.
//
// The builder is a fold over the run's stops sorted by arrival, carrying a
// cursor of the last known departure time and odometer mileage.
// A stop missing a departure or mileage does not move the cursor, so the next
// leg is measured from the last values that were actually recorded.
package segment

import (
	"fmt"
	"slices"
	"time"

	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/present"
	"github.com/rotblauer/fleetd/types/runtrack"
	"github.com/shopspring/decimal"
)

// Input is everything the builder reads. Locations must already be
// outlier-filtered and sorted by time.
type Input struct {
	StartTime    time.Time
	StartMileage float64
	InProgress   bool
	Locations    []runtrack.LocationPoint
	Stops        []runtrack.Stop
	// Now ends the live leg of an in-progress run.
	Now time.Time
}

// InputFromRun builds an Input for r. Locations are taken as given.
func InputFromRun(r *runtrack.Run, locations []runtrack.LocationPoint, now time.Time) Input {
	return Input{
		StartTime:    r.StartTime,
		StartMileage: r.StartMileage,
		InProgress:   r.InProgress(),
		Locations:    locations,
		Stops:        r.Stops,
		Now:          now,
	}
}

// indexedStop remembers a stop's position in the run's declaration order.
type indexedStop struct {
	runtrack.Stop
	index int
}

// cursor is the fold accumulator.
type cursor struct {
	time    time.Time
	mileage *float64
}

// advance moves the cursor past s, keeping known values where s has none.
func (c cursor) advance(s runtrack.Stop) cursor {
	if s.DepartureTime != nil {
		c.time = *s.DepartureTime
	}
	if s.MileageAtStop != nil {
		c.mileage = s.MileageAtStop
	}
	return c
}

// reachedStops returns the stops that produce segments, stably sorted by arrival.
// Stops sharing an arrival time keep their declaration order.
func reachedStops(stops []runtrack.Stop) []indexedStop {
	out := make([]indexedStop, 0, len(stops))
	for i, s := range stops {
		if s.Reached() {
			out = append(out, indexedStop{Stop: s, index: i})
		}
	}
	slices.SortStableFunc(out, func(a, b indexedStop) int {
		return a.ArrivalTime.Compare(*b.ArrivalTime)
	})
	return out
}

// Build returns one segment per reached stop, in arrival order,
// plus a trailing live segment for an in-progress run that has moved
// since its last departure.
func Build(in Input) []runtrack.Segment {
	stops := reachedStops(in.Stops)
	segments := make([]runtrack.Segment, 0, len(stops)+1)

	startMileage := in.StartMileage
	acc := cursor{time: in.StartTime, mileage: &startMileage}
	for i, s := range stops {
		segments = append(segments, leg(in, stops, i, acc))
		acc = acc.advance(s.Stop)
	}

	if live, ok := currentLeg(in, stops); ok {
		segments = append(segments, live)
	}
	return segments
}

func leg(in Input, stops []indexedStop, i int, acc cursor) runtrack.Segment {
	s := stops[i]
	arrival := *s.ArrivalTime

	path := runtrack.LineString(window(in.Locations, acc.time, arrival))
	if b, ok := boundary(in, stops, i); ok {
		path = slices.Insert(path, 0, b.Point)
	}

	seg := runtrack.Segment{
		ID:         fmt.Sprintf("segment-%d", i),
		Label:      fmt.Sprintf("Route to %s", s.Name),
		StopName:   s.Name,
		StopIndex:  s.index,
		Path:       path,
		Color:      present.Color(i),
		Start:      acc.time,
		End:        arrival,
		TravelTime: minutes(arrival.Sub(acc.time)),
		Distance:   distance(s.MileageAtStop, acc.mileage),
	}
	if s.DepartureTime != nil {
		d := minutes(s.DepartureTime.Sub(arrival))
		seg.StopTime = &d
	}
	return seg
}

// window returns the points with time in [from, to].
func window(points []runtrack.LocationPoint, from, to time.Time) []runtrack.LocationPoint {
	lo, _ := slices.BinarySearchFunc(points, from, func(p runtrack.LocationPoint, t time.Time) int {
		return p.Time.Compare(t)
	})
	out := make([]runtrack.LocationPoint, 0)
	for _, p := range points[lo:] {
		if p.Time.After(to) {
			break
		}
		out = append(out, p)
	}
	return out
}

// boundary finds the point shared with the previous leg.
// The first leg starts at the first point at or after the run start;
// later legs start at the last point at or before the previous departure.
// There is no boundary when no such point exists, or when the previous
// stop never departed.
func boundary(in Input, stops []indexedStop, i int) (runtrack.LocationPoint, bool) {
	if i == 0 {
		for _, p := range in.Locations {
			if !p.Time.Before(in.StartTime) {
				return p, true
			}
		}
		return runtrack.LocationPoint{}, false
	}
	prev := stops[i-1]
	if prev.DepartureTime == nil {
		return runtrack.LocationPoint{}, false
	}
	for j := len(in.Locations) - 1; j >= 0; j-- {
		if !in.Locations[j].Time.After(*prev.DepartureTime) {
			return in.Locations[j], true
		}
	}
	return runtrack.LocationPoint{}, false
}

// currentLeg is the live leg from the final stop's departure to now.
func currentLeg(in Input, stops []indexedStop) (runtrack.Segment, bool) {
	if !in.InProgress || len(stops) == 0 {
		return runtrack.Segment{}, false
	}
	last := stops[len(stops)-1]
	if last.DepartureTime == nil {
		return runtrack.Segment{}, false
	}
	departed := *last.DepartureTime
	var path []runtrack.LocationPoint
	for _, p := range in.Locations {
		if !p.Time.Before(departed) {
			path = append(path, p)
		}
	}
	if len(path) == 0 {
		return runtrack.Segment{}, false
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	return runtrack.Segment{
		ID:         runtrack.CurrentSegmentID,
		Label:      runtrack.CurrentSegmentLabel,
		StopIndex:  -1,
		Path:       runtrack.LineString(path),
		Color:      params.SegmentNeutralColor,
		Start:      departed,
		End:        now,
		TravelTime: minutes(now.Sub(departed)),
		Current:    true,
	}, true
}

// distance is the odometer difference, or nil when either reading is missing.
func distance(atStop, cursorMileage *float64) *float64 {
	if atStop == nil || cursorMileage == nil {
		return nil
	}
	d := decimal.NewFromFloat(*atStop).Sub(decimal.NewFromFloat(*cursorMileage)).InexactFloat64()
	return &d
}

// minutes rounds d to the display granularity.
// Comparisons elsewhere use full precision.
func minutes(d time.Duration) time.Duration {
	return d.Round(time.Minute)
}
