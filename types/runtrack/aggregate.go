package runtrack

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotblauer/fleetd/conceptual"
)

const RunKeyDateLayout = time.DateOnly

// RunKey identifies the runs of one vehicle, shift and calendar day.
type RunKey struct {
	VehicleID conceptual.VehicleID `json:"vehicleId"`
	Shift     conceptual.Shift     `json:"shift"`
	Date      string               `json:"date"`
}

func NewRunKey(vehicle conceptual.VehicleID, shift conceptual.Shift, start time.Time, loc *time.Location) RunKey {
	if loc == nil {
		loc = time.Local
	}
	return RunKey{
		VehicleID: vehicle,
		Shift:     shift,
		Date:      start.In(loc).Format(RunKeyDateLayout),
	}
}

// String renders the key as vehicle/shift/date.
func (k RunKey) String() string {
	return strings.Join([]string{k.VehicleID.String(), k.Shift.String(), k.Date}, "/")
}

func ParseRunKey(s string) (RunKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return RunKey{}, fmt.Errorf("run key %q: want vehicle/shift/date", s)
	}
	if parts[0] == "" || parts[1] == "" {
		return RunKey{}, fmt.Errorf("run key %q: empty vehicle or shift", s)
	}
	if _, err := time.Parse(RunKeyDateLayout, parts[2]); err != nil {
		return RunKey{}, fmt.Errorf("run key %q: %w", s, err)
	}
	return RunKey{
		VehicleID: conceptual.VehicleID(parts[0]),
		Shift:     conceptual.Shift(parts[1]),
		Date:      parts[2],
	}, nil
}

// IdleGap is the time a vehicle sat between two consecutive runs of an aggregate.
type IdleGap struct {
	After    conceptual.RunID `json:"after"`
	Before   conceptual.RunID `json:"before"`
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Duration time.Duration    `json:"duration"`
}

// AggregatedRun merges the runs sharing a RunKey into one logical journey.
// It is a computed view and is never persisted.
type AggregatedRun struct {
	Key          RunKey               `json:"key"`
	DriverID     conceptual.DriverID  `json:"driverId"`
	DriverName   string               `json:"driverName"`
	VehicleID    conceptual.VehicleID `json:"vehicleId"`
	StartTime    time.Time            `json:"startTime"`
	EndTime      *time.Time           `json:"endTime,omitempty"`
	StartMileage float64              `json:"startMileage"`
	EndMileage   *float64             `json:"endMileage,omitempty"`
	Status       RunStatus            `json:"status"`

	Stops           []Stop          `json:"stops"`
	LocationHistory []LocationPoint `json:"locationHistory"`

	// TotalDistance is in kilometers of odometer, 0 when unknown.
	TotalDistance float64 `json:"totalDistance"`
	// TotalDuration is zero while the last run is open.
	TotalDuration time.Duration `json:"totalDuration"`

	IdleGaps     []IdleGap `json:"idleGaps,omitempty"`
	OriginalRuns []*Run    `json:"originalRuns"`
}

func (a *AggregatedRun) InProgress() bool {
	return a.Status == RunInProgress
}

// AsRun flattens the aggregate into a synthetic Run
// so it can be reconstructed like any single run.
func (a *AggregatedRun) AsRun() *Run {
	return &Run{
		ID:              conceptual.RunID(a.Key.String()),
		DriverID:        a.DriverID,
		DriverName:      a.DriverName,
		VehicleID:       a.VehicleID,
		StartMileage:    a.StartMileage,
		EndMileage:      a.EndMileage,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		Status:          a.Status,
		Stops:           a.Stops,
		LocationHistory: a.LocationHistory,
	}
}
