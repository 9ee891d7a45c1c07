package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/rotblauer/fleetd/conceptual"
	"github.com/rotblauer/fleetd/geo/aggregate"
	"github.com/rotblauer/fleetd/types/runtrack"
)

var ErrNoRuns = errors.New("no runs")

// RunSource is the read side of run storage.
// state.Store is the production implementation.
type RunSource interface {
	GetRun(id conceptual.RunID) (*runtrack.Run, error)
	ListRuns(filter runtrack.RunFilter) ([]*runtrack.Run, error)
	Drivers() ([]runtrack.Driver, error)
}

// LoadAggregate reads the runs of the key's vehicle on the key's date,
// keeps those whose driver works the key's shift, and aggregates them.
// A nil memo aggregates without caching.
func LoadAggregate(src RunSource, key runtrack.RunKey, loc *time.Location, memo *aggregate.Memo) (*runtrack.AggregatedRun, error) {
	filter, err := runtrack.DayFilter(key.VehicleID, key.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", key, err)
	}
	runs, err := src.ListRuns(filter)
	if err != nil {
		return nil, err
	}
	drivers, err := src.Drivers()
	if err != nil {
		return nil, err
	}
	shifts := runtrack.NewShiftLookup(drivers)

	onShift := runs[:0:0]
	for _, r := range runs {
		if shifts.Shift(r.DriverID) == key.Shift {
			onShift = append(onShift, r)
		}
	}
	if len(onShift) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRuns, key)
	}

	if memo != nil {
		return memo.Aggregate(key, onShift), nil
	}
	return aggregate.Aggregate(key, onShift), nil
}

// Aggregates groups every run in the window into its daily aggregate.
func Aggregates(src RunSource, filter runtrack.RunFilter, loc *time.Location) ([]*runtrack.AggregatedRun, error) {
	runs, err := src.ListRuns(filter)
	if err != nil {
		return nil, err
	}
	drivers, err := src.Drivers()
	if err != nil {
		return nil, err
	}
	return aggregate.All(runs, runtrack.NewShiftLookup(drivers), loc), nil
}
