package segment

import (
	"testing"
	"time"

	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/types/runtrack"
)

var t0 = time.Date(2024, 11, 18, 8, 0, 0, 0, time.UTC)

func at(minute int) time.Time {
	return t0.Add(time.Duration(minute) * time.Minute)
}

func atp(minute int) *time.Time {
	t := at(minute)
	return &t
}

func f64(v float64) *float64 {
	return &v
}

// track returns one point per minute from 0 to n-1, walking north.
func track(n int) []runtrack.LocationPoint {
	out := make([]runtrack.LocationPoint, n)
	for i := range out {
		out[i] = runtrack.NewLocationPoint(float64(i)*0.001, 0, at(i))
	}
	return out
}

func TestBuild_OneCompletedOnePending(t *testing.T) {
	in := Input{
		StartTime:    at(0),
		StartMileage: 100,
		Locations:    track(20),
		Stops: []runtrack.Stop{
			{Name: "A", Status: runtrack.StopCompleted, ArrivalTime: atp(5), DepartureTime: atp(8), MileageAtStop: f64(110)},
			{Name: "B", Status: runtrack.StopPending},
		},
	}
	segs := Build(in)
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	s := segs[0]
	if s.ID != "segment-0" || s.StopName != "A" || s.StopIndex != 0 {
		t.Errorf("bad identity %+v", s)
	}
	if s.TravelTime != 5*time.Minute {
		t.Errorf("travel %s", s.TravelTime)
	}
	if s.StopTime == nil || *s.StopTime != 3*time.Minute {
		t.Errorf("stop time %v", s.StopTime)
	}
	if s.Distance == nil || *s.Distance != 10 {
		t.Errorf("distance %v", s.Distance)
	}
	if s.Color != params.SegmentPalette[0] {
		t.Errorf("color %s", s.Color)
	}
	// Boundary (minute 0) plus window [0,5] = 7 points.
	if len(s.Path) != 7 {
		t.Fatalf("path has %d points, want 7", len(s.Path))
	}
	if s.Path[0] != s.Path[1] {
		t.Error("first leg should start with the first point at or after run start")
	}
}

func TestBuild_CursorAdvancesOnlyOnKnownValues(t *testing.T) {
	in := Input{
		StartTime:    at(0),
		StartMileage: 100,
		Locations:    track(60),
		Stops: []runtrack.Stop{
			{Name: "A", Status: runtrack.StopCompleted, ArrivalTime: atp(10), DepartureTime: atp(15), MileageAtStop: f64(112.5)},
			// No departure, no mileage.
			{Name: "B", Status: runtrack.StopCompleted, ArrivalTime: atp(20)},
			{Name: "C", Status: runtrack.StopCompleted, ArrivalTime: atp(40), DepartureTime: atp(45), MileageAtStop: f64(130.1)},
		},
	}
	segs := Build(in)
	if len(segs) != 3 {
		t.Fatalf("got %d", len(segs))
	}
	// B: travel from A's departure.
	if segs[1].TravelTime != 5*time.Minute {
		t.Errorf("B travel %s", segs[1].TravelTime)
	}
	if segs[1].Distance != nil {
		t.Errorf("B distance should be unavailable, got %v", *segs[1].Distance)
	}
	if segs[1].StopTime != nil {
		t.Error("B has no departure, stop time should be in progress")
	}
	// C: cursor still at A's departure and mileage.
	if segs[2].TravelTime != 25*time.Minute {
		t.Errorf("C travel %s", segs[2].TravelTime)
	}
	if segs[2].Distance == nil || *segs[2].Distance != 17.6 {
		t.Errorf("C distance %v", segs[2].Distance)
	}
	// C's boundary: B never departed, so no prefix. Window [15, 40] = 26 points.
	if len(segs[2].Path) != 26 {
		t.Errorf("C path %d points, want 26", len(segs[2].Path))
	}
	// B's boundary: last point at or before A's departure (minute 15), plus window [15,20].
	if len(segs[1].Path) != 7 || segs[1].Path[0] != in.Locations[15].Point {
		t.Errorf("B path %v", segs[1].Path)
	}
}

func TestBuild_SkipsUnreached(t *testing.T) {
	in := Input{
		StartTime: at(0),
		Locations: track(10),
		Stops: []runtrack.Stop{
			{Name: "no-arrival", Status: runtrack.StopCompleted},
			{Name: "canceled", Status: runtrack.StopCanceled, ArrivalTime: atp(2)},
			{Name: "pending", Status: runtrack.StopPending, ArrivalTime: atp(3)},
			{Name: "here", Status: runtrack.StopInProgress, ArrivalTime: atp(4)},
		},
	}
	segs := Build(in)
	if len(segs) != 1 || segs[0].StopName != "here" {
		t.Fatalf("got %+v", segs)
	}
	if segs[0].StopIndex != 3 {
		t.Errorf("stop index %d", segs[0].StopIndex)
	}
	if !segs[0].StopInProgress() {
		t.Error("in progress stop")
	}
}

func TestBuild_SortsByArrivalStable(t *testing.T) {
	in := Input{
		StartTime: at(0),
		Locations: track(30),
		Stops: []runtrack.Stop{
			{Name: "late", Status: runtrack.StopCompleted, ArrivalTime: atp(20), DepartureTime: atp(21)},
			{Name: "tie-first", Status: runtrack.StopCompleted, ArrivalTime: atp(10), DepartureTime: atp(11)},
			{Name: "tie-second", Status: runtrack.StopCompleted, ArrivalTime: atp(10), DepartureTime: atp(12)},
		},
	}
	segs := Build(in)
	want := []string{"tie-first", "tie-second", "late"}
	for i, s := range segs {
		if s.StopName != want[i] {
			t.Fatalf("index %d: got %s, want %s", i, s.StopName, want[i])
		}
		if i > 0 && s.End.Before(segs[i-1].End) {
			t.Fatal("segments not in arrival order")
		}
	}
}

func TestBuild_CurrentLeg(t *testing.T) {
	in := Input{
		StartTime:    at(0),
		StartMileage: 100,
		InProgress:   true,
		Locations:    track(30),
		Stops: []runtrack.Stop{
			{Name: "A", Status: runtrack.StopCompleted, ArrivalTime: atp(5), DepartureTime: atp(10), MileageAtStop: f64(105)},
		},
		Now: at(40),
	}
	segs := Build(in)
	if len(segs) != 2 {
		t.Fatalf("got %d segments", len(segs))
	}
	live := segs[1]
	if !live.Current || live.ID != runtrack.CurrentSegmentID {
		t.Fatalf("not a live segment: %+v", live)
	}
	if live.Color != params.SegmentNeutralColor {
		t.Errorf("color %s", live.Color)
	}
	if live.StopTime != nil || live.Distance != nil {
		t.Error("live segment has no stop time or distance")
	}
	if live.TravelTime != 30*time.Minute {
		t.Errorf("travel %s", live.TravelTime)
	}
	// Points at minutes 10..29.
	if len(live.Path) != 20 {
		t.Errorf("path %d", len(live.Path))
	}

	// Completed runs never get one.
	in.InProgress = false
	if n := len(Build(in)); n != 1 {
		t.Errorf("completed run: %d segments", n)
	}

	// Nor do runs whose last stop has not departed.
	in.InProgress = true
	in.Stops[0].DepartureTime = nil
	in.Stops[0].Status = runtrack.StopInProgress
	if n := len(Build(in)); n != 1 {
		t.Errorf("undeparted: %d segments", n)
	}

	// Nor runs without points after the departure.
	in.Stops[0].DepartureTime = atp(100)
	in.Stops[0].Status = runtrack.StopCompleted
	if n := len(Build(in)); n != 1 {
		t.Errorf("no points after departure: %d segments", n)
	}
}

func TestBuild_Empty(t *testing.T) {
	if segs := Build(Input{}); len(segs) != 0 {
		t.Fatalf("got %d", len(segs))
	}
	// Stops but no locations: segments exist with empty paths.
	segs := Build(Input{
		StartTime: at(0),
		Stops:     []runtrack.Stop{{Name: "A", Status: runtrack.StopCompleted, ArrivalTime: atp(5)}},
	})
	if len(segs) != 1 || len(segs[0].Path) != 0 {
		t.Fatalf("got %+v", segs)
	}
}

func TestBuild_MinuteRounding(t *testing.T) {
	arr := at(0).Add(4*time.Minute + 31*time.Second)
	dep := arr.Add(59 * time.Second)
	segs := Build(Input{
		StartTime: at(0),
		Stops:     []runtrack.Stop{{Name: "A", Status: runtrack.StopCompleted, ArrivalTime: &arr, DepartureTime: &dep}},
	})
	if segs[0].TravelTime != 5*time.Minute {
		t.Errorf("travel %s", segs[0].TravelTime)
	}
	if *segs[0].StopTime != time.Minute {
		t.Errorf("stop %s", *segs[0].StopTime)
	}
}

func TestBuild_PathPointBudget(t *testing.T) {
	locs := track(120)
	in := Input{
		StartTime: at(0),
		Locations: locs,
		Stops: []runtrack.Stop{
			{Name: "A", Status: runtrack.StopCompleted, ArrivalTime: atp(20), DepartureTime: atp(30)},
			{Name: "B", Status: runtrack.StopCompleted, ArrivalTime: atp(50), DepartureTime: atp(55)},
			{Name: "C", Status: runtrack.StopCompleted, ArrivalTime: atp(90), DepartureTime: atp(95)},
		},
	}
	segs := Build(in)
	total := 0
	for _, s := range segs {
		total += len(s.Path)
	}
	// One boundary duplicate per segment at most.
	if total > len(locs)+len(segs) {
		t.Fatalf("path points %d exceed %d", total, len(locs)+len(segs))
	}
}
