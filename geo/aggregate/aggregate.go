// Package aggregate merges the runs a vehicle makes during one shift and day
// into a single logical journey. Drivers restart the tracking client several
// times a shift; supervisors want to see one route.
package aggregate

import (
	"cmp"
	"slices"
	"time"

	"github.com/rotblauer/fleetd/types/runtrack"
	"github.com/shopspring/decimal"
)

// Group buckets runs by (vehicle, driver shift, calendar date of start in loc).
// Runs within each bucket are stably sorted by start time.
func Group(runs []*runtrack.Run, shifts runtrack.ShiftLookup, loc *time.Location) map[runtrack.RunKey][]*runtrack.Run {
	groups := make(map[runtrack.RunKey][]*runtrack.Run)
	for _, r := range runs {
		if r == nil {
			continue
		}
		k := runtrack.NewRunKey(r.VehicleID, shifts.Shift(r.DriverID), r.StartTime, loc)
		groups[k] = append(groups[k], r)
	}
	for _, g := range groups {
		sortRuns(g)
	}
	return groups
}

func sortRuns(runs []*runtrack.Run) {
	slices.SortStableFunc(runs, func(a, b *runtrack.Run) int {
		return a.StartTime.Compare(b.StartTime)
	})
}

// Aggregate merges runs sharing key into one journey.
// It returns nil for no runs.
func Aggregate(key runtrack.RunKey, runs []*runtrack.Run) *runtrack.AggregatedRun {
	if len(runs) == 0 {
		return nil
	}
	runs = slices.Clone(runs)
	sortRuns(runs)
	first, last := runs[0], runs[len(runs)-1]

	agg := &runtrack.AggregatedRun{
		Key:          key,
		DriverID:     first.DriverID,
		DriverName:   first.DriverName,
		VehicleID:    first.VehicleID,
		StartTime:    first.StartTime,
		EndTime:      last.EndTime,
		StartMileage: first.StartMileage,
		EndMileage:   endMileage(last),
		Status:       runtrack.RunCompleted,
		OriginalRuns: runs,
	}
	for _, r := range runs {
		if r.InProgress() {
			agg.Status = runtrack.RunInProgress
			break
		}
	}

	agg.Stops = mergeStops(runs, agg.InProgress())
	agg.LocationHistory = mergeLocations(runs)

	if agg.EndMileage != nil {
		agg.TotalDistance = decimal.NewFromFloat(*agg.EndMileage).
			Sub(decimal.NewFromFloat(agg.StartMileage)).InexactFloat64()
	}
	if agg.EndTime != nil {
		agg.TotalDuration = agg.EndTime.Sub(agg.StartTime)
	}
	agg.IdleGaps = IdleGaps(runs)
	return agg
}

// All groups and aggregates runs, ordered by start time.
func All(runs []*runtrack.Run, shifts runtrack.ShiftLookup, loc *time.Location) []*runtrack.AggregatedRun {
	groups := Group(runs, shifts, loc)
	out := make([]*runtrack.AggregatedRun, 0, len(groups))
	for k, g := range groups {
		out = append(out, Aggregate(k, g))
	}
	slices.SortFunc(out, func(a, b *runtrack.AggregatedRun) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Key.String(), b.Key.String())
	})
	return out
}

// endMileage is the run's end mileage, falling back to the highest
// stop mileage for runs left open without one.
func endMileage(r *runtrack.Run) *float64 {
	if r.EndMileage != nil {
		return r.EndMileage
	}
	var best *float64
	for _, s := range r.Stops {
		if s.MileageAtStop != nil && (best == nil || *s.MileageAtStop > *best) {
			best = s.MileageAtStop
		}
	}
	return best
}

// mergeStops concatenates completed stops (and in-progress ones for an open
// aggregate), stably sorted by arrival. Stops without arrival sort last.
func mergeStops(runs []*runtrack.Run, open bool) []runtrack.Stop {
	var stops []runtrack.Stop
	for _, r := range runs {
		for _, s := range r.Stops {
			if s.Status == runtrack.StopCompleted || (open && s.Status == runtrack.StopInProgress) {
				stops = append(stops, s)
			}
		}
	}
	slices.SortStableFunc(stops, func(a, b runtrack.Stop) int {
		switch {
		case a.ArrivalTime == nil && b.ArrivalTime == nil:
			return 0
		case a.ArrivalTime == nil:
			return 1
		case b.ArrivalTime == nil:
			return -1
		}
		return a.ArrivalTime.Compare(*b.ArrivalTime)
	})
	return stops
}

// mergeLocations concatenates every run's history and sorts it.
// Runs can overlap or arrive out of order, so the sort is not optional.
func mergeLocations(runs []*runtrack.Run) []runtrack.LocationPoint {
	n := 0
	for _, r := range runs {
		n += len(r.LocationHistory)
	}
	out := make([]runtrack.LocationPoint, 0, n)
	for _, r := range runs {
		out = append(out, r.LocationHistory...)
	}
	runtrack.SortPoints(out)
	return out
}

// IdleGaps returns the strictly positive gaps between one run's end
// and the next run's start. Runs must be sorted by start time.
func IdleGaps(runs []*runtrack.Run) []runtrack.IdleGap {
	var gaps []runtrack.IdleGap
	for i := 1; i < len(runs); i++ {
		prev, next := runs[i-1], runs[i]
		if prev.EndTime == nil {
			continue
		}
		d := next.StartTime.Sub(*prev.EndTime)
		if d <= 0 {
			continue
		}
		gaps = append(gaps, runtrack.IdleGap{
			After:    prev.ID,
			Before:   next.ID,
			From:     *prev.EndTime,
			To:       next.StartTime,
			Duration: d,
		})
	}
	return gaps
}
