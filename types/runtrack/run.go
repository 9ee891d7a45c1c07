package runtrack

import (
	"fmt"
	"time"

	"github.com/rotblauer/fleetd/conceptual"
)

type RunStatus string

const (
	RunInProgress RunStatus = "IN_PROGRESS"
	RunCompleted  RunStatus = "COMPLETED"
)

func (s RunStatus) Valid() bool {
	return s == RunInProgress || s == RunCompleted
}

// Run is one continuous tracked journey by a driver and vehicle.
// It is owned by the tracking client; route reconstruction only reads it.
type Run struct {
	ID           conceptual.RunID     `json:"id"`
	DriverID     conceptual.DriverID  `json:"driverId"`
	DriverName   string               `json:"driverName"`
	VehicleID    conceptual.VehicleID `json:"vehicleId"`
	StartMileage float64              `json:"startMileage"`
	EndMileage   *float64             `json:"endMileage,omitempty"`
	StartTime    time.Time            `json:"startTime"`
	EndTime      *time.Time           `json:"endTime,omitempty"`
	Status       RunStatus            `json:"status"`

	Stops           []Stop          `json:"stops"`
	LocationHistory []LocationPoint `json:"locationHistory"`
}

func (r *Run) InProgress() bool {
	return r.Status == RunInProgress
}

// Validate checks the run's own fields and each of its stops.
func (r *Run) Validate() error {
	if r.ID.IsEmpty() {
		return fmt.Errorf("run: missing id")
	}
	if r.VehicleID.IsEmpty() {
		return fmt.Errorf("run %s: missing vehicle", r.ID)
	}
	if r.StartTime.IsZero() {
		return fmt.Errorf("run %s: missing start time", r.ID)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("run %s: unknown status %q", r.ID, r.Status)
	}
	if r.EndTime != nil && r.EndTime.Before(r.StartTime) {
		return fmt.Errorf("run %s: end time before start time", r.ID)
	}
	if r.EndMileage != nil && *r.EndMileage < r.StartMileage {
		return fmt.Errorf("run %s: end mileage %.1f below start mileage %.1f", r.ID, *r.EndMileage, r.StartMileage)
	}
	for i, s := range r.Stops {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("run %s: stop %d: %w", r.ID, i, err)
		}
	}
	return nil
}

// LastPoint returns the latest location point of the run by timestamp.
func (r *Run) LastPoint() (LocationPoint, bool) {
	if len(r.LocationHistory) == 0 {
		return LocationPoint{}, false
	}
	last := r.LocationHistory[0]
	for _, p := range r.LocationHistory[1:] {
		if !p.Time.Before(last.Time) {
			last = p
		}
	}
	return last, true
}

// Progress summarizes how far along its stops a run is.
type Progress struct {
	Completed   int     `json:"completed"`
	Total       int     `json:"total"`
	Percent     float64 `json:"percent"`
	CurrentStop string  `json:"currentStop,omitempty"`
}

// Progress counts completed stops against all non-canceled stops.
// A completed run is always at 100%.
func (r *Run) Progress() Progress {
	p := Progress{}
	for _, s := range r.Stops {
		if s.Status == StopCanceled {
			continue
		}
		p.Total++
		if s.Status == StopCompleted {
			p.Completed++
		}
		if s.Status == StopInProgress && p.CurrentStop == "" {
			p.CurrentStop = s.Name
		}
	}
	switch {
	case r.Status == RunCompleted:
		p.Percent = 100
	case p.Total > 0:
		p.Percent = float64(p.Completed) / float64(p.Total) * 100
	}
	return p
}

// Driver is the user record used to look up a driver's shift.
type Driver struct {
	ID    conceptual.DriverID `json:"id"`
	Name  string              `json:"name"`
	Shift conceptual.Shift    `json:"shift"`
}

// ShiftLookup maps drivers to their shifts.
type ShiftLookup map[conceptual.DriverID]conceptual.Shift

func NewShiftLookup(drivers []Driver) ShiftLookup {
	l := make(ShiftLookup, len(drivers))
	for _, d := range drivers {
		l[d.ID] = d.Shift
	}
	return l
}

// Shift returns the driver's shift, or conceptual.ShiftUnknown.
func (l ShiftLookup) Shift(driver conceptual.DriverID) conceptual.Shift {
	if s, ok := l[driver]; ok && !s.IsEmpty() {
		return s
	}
	return conceptual.ShiftUnknown
}
