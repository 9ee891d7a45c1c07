package runtrack

import (
	"time"

	"github.com/rotblauer/fleetd/conceptual"
)

// RunFilter selects runs. Zero-valued fields match everything.
// From and To bound the start time, inclusive.
type RunFilter struct {
	Status    RunStatus
	VehicleID conceptual.VehicleID
	From      time.Time
	To        time.Time
}

func (f RunFilter) Match(r *Run) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.VehicleID.IsEmpty() && r.VehicleID != f.VehicleID {
		return false
	}
	if !f.From.IsZero() && r.StartTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.StartTime.After(f.To) {
		return false
	}
	return true
}

// DayFilter matches runs of a vehicle starting on the calendar date in loc.
func DayFilter(vehicle conceptual.VehicleID, date string, loc *time.Location) (RunFilter, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(RunKeyDateLayout, date, loc)
	if err != nil {
		return RunFilter{}, err
	}
	return RunFilter{
		VehicleID: vehicle,
		From:      day,
		To:        day.AddDate(0, 0, 1).Add(-time.Nanosecond),
	}, nil
}
