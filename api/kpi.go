package api

import (
	"cmp"
	"slices"
	"time"

	"github.com/rotblauer/fleetd/conceptual"
	"github.com/rotblauer/fleetd/types/runtrack"
	"github.com/shopspring/decimal"
)

// KPIs are fleet totals over completed runs.
type KPIs struct {
	TotalRuns int `json:"totalRuns"`
	// TotalDistance sums end minus start mileage of runs where both are known.
	TotalDistance          float64    `json:"totalDistance"`
	AverageDurationMinutes float64    `json:"averageDurationMinutes"`
	RunsPerDay             []DayCount `json:"runsPerDay,omitempty"`
}

type DayCount struct {
	Date string `json:"date"`
	Runs int    `json:"runs"`
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// endedWithin reports whether r is completed and ended on a day between from and to, inclusive.
func endedWithin(r *runtrack.Run, from, to time.Time, loc *time.Location) bool {
	if r.Status != runtrack.RunCompleted || r.EndTime == nil {
		return false
	}
	lo := startOfDay(from, loc)
	hi := startOfDay(to, loc).AddDate(0, 0, 1)
	return !r.EndTime.Before(lo) && r.EndTime.Before(hi)
}

// ComputeKPIs totals the completed runs that ended on a day in [from, to].
func ComputeKPIs(runs []*runtrack.Run, from, to time.Time, loc *time.Location) KPIs {
	if loc == nil {
		loc = time.Local
	}
	k := KPIs{}
	distance := decimal.Zero
	var duration time.Duration
	for _, r := range runs {
		if !endedWithin(r, from, to, loc) {
			continue
		}
		k.TotalRuns++
		if r.EndMileage != nil {
			distance = distance.Add(decimal.NewFromFloat(*r.EndMileage).Sub(decimal.NewFromFloat(r.StartMileage)))
		}
		duration += r.EndTime.Sub(r.StartTime)
	}
	k.TotalDistance, _ = distance.Float64()
	if k.TotalRuns > 0 {
		k.AverageDurationMinutes = duration.Minutes() / float64(k.TotalRuns)
	}
	return k
}

// RunsPerDay counts completed runs by end day for the last days days, ending today, oldest first.
func RunsPerDay(runs []*runtrack.Run, now time.Time, days int, loc *time.Location) []DayCount {
	if loc == nil {
		loc = time.Local
	}
	today := startOfDay(now, loc)
	out := make([]DayCount, days)
	for i := range out {
		day := today.AddDate(0, 0, i-days+1)
		out[i].Date = day.Format(runtrack.RunKeyDateLayout)
		for _, r := range runs {
			if endedWithin(r, day, day, loc) {
				out[i].Runs++
			}
		}
	}
	return out
}

// MergeLive merges the in-progress and completed-today collections by run id.
// The in-progress copy of a run wins. The result is sorted by start time.
func MergeLive(inProgress, completed []*runtrack.Run) []*runtrack.Run {
	byID := make(map[conceptual.RunID]*runtrack.Run, len(inProgress)+len(completed))
	for _, r := range completed {
		byID[r.ID] = r
	}
	for _, r := range inProgress {
		byID[r.ID] = r
	}
	out := make([]*runtrack.Run, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *runtrack.Run) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
