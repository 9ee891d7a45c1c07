package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotblauer/fleetd/common"
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/types/runtrack"
	"github.com/tidwall/gjson"
)

// liveRun has one completed stop, one pending stop, 30 minutes of pings
// and one wild fix at 12m30s.
func liveRun() *runtrack.Run {
	history := track(30)
	history = append(history, runtrack.NewLocationPoint(10, 10, at(12).Add(30*time.Second)))
	// Out of order on purpose.
	history[3], history[20] = history[20], history[3]
	return &runtrack.Run{
		ID:           "r-live",
		DriverID:     "ana",
		VehicleID:    "truck-7",
		StartMileage: 100,
		StartTime:    at(0),
		Status:       runtrack.RunInProgress,
		Stops: []runtrack.Stop{
			{Name: "A", Status: runtrack.StopCompleted, ArrivalTime: atp(5), DepartureTime: atp(10), MileageAtStop: f64(105)},
			{Name: "Skipped", Status: runtrack.StopCanceled},
			{Name: "B", Status: runtrack.StopPending},
		},
		LocationHistory: history,
	}
}

func TestRouteForRun(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError)()

	v := RouteForRun(liveRun(), RouteOptions{Now: at(40), Highlight: "segment-0", Location: time.UTC})

	if len(v.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(v.Segments))
	}
	if v.Segments[0].ID != "segment-0" || !v.Segments[1].Current {
		t.Fatalf("unexpected segments %s, %s", v.Segments[0].ID, v.Segments[1].ID)
	}
	if v.Segments[0].Opacity != params.SegmentOpacityHighlighted || v.Segments[1].Opacity != params.SegmentOpacityDimmed {
		t.Errorf("opacity %v %v", v.Segments[0].Opacity, v.Segments[1].Opacity)
	}
	if v.Highlight != "segment-0" {
		t.Errorf("highlight %q", v.Highlight)
	}

	if v.Summary.Points != 31 || v.Summary.OutliersRejected != 1 {
		t.Errorf("summary points %d rejected %d", v.Summary.Points, v.Summary.OutliersRejected)
	}
	if v.Summary.TotalDistance != 5 {
		t.Errorf("distance %v", v.Summary.TotalDistance)
	}
	if v.Summary.Travel.Mean != 17.5 || v.Summary.Travel.Max != 30 || v.Summary.Dwell.Mean != 5 {
		t.Errorf("stats %+v %+v", v.Summary.Travel, v.Summary.Dwell)
	}
	if v.Summary.Text != "2 legs, 5 km, 35 min driving" {
		t.Errorf("text %q", v.Summary.Text)
	}

	if v.CurrentPosition == nil || !v.CurrentPosition.Time.Equal(at(29)) {
		t.Fatalf("current position %v", v.CurrentPosition)
	}
	if v.Bounds == nil || v.Bounds.Max.Lat() > 1 {
		t.Errorf("bounds should exclude the outlier: %v", v.Bounds)
	}
	if len(v.FullPath) < 2 || v.FullPath[0] != (orb.Point{0, 0}) || v.FullPath[len(v.FullPath)-1] != track(30)[29].Point {
		t.Errorf("full path ends %v", v.FullPath)
	}

	if v.Progress.Completed != 1 || v.Progress.Total != 2 || v.Progress.Percent != 50 {
		t.Errorf("progress %+v", v.Progress)
	}

	// Canceled stops are left out of the legend.
	if len(v.Legend) != 2 {
		t.Fatalf("legend %d entries", len(v.Legend))
	}
	a, b := v.Legend[0], v.Legend[1]
	if a.SegmentID != "segment-0" || a.Color != params.SegmentPalette[0] || a.Arrival != "08:05" || a.Mileage != "105 km" {
		t.Errorf("legend A %+v", a)
	}
	if b.Index != 2 || b.SegmentID != "" || b.Arrival != "" {
		t.Errorf("legend B %+v", b)
	}
}

func TestRouteForRun_UnknownHighlight(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError)()

	v := RouteForRun(liveRun(), RouteOptions{Now: at(40), Highlight: "segment-9"})
	if v.Highlight != "" {
		t.Errorf("highlight %q", v.Highlight)
	}
	for _, s := range v.Segments {
		if s.Opacity != params.SegmentOpacityDefault {
			t.Errorf("%s opacity %v", s.ID, s.Opacity)
		}
	}
}

func TestRouteForRun_Empty(t *testing.T) {
	v := RouteForRun(&runtrack.Run{ID: "r", StartTime: t0, Status: runtrack.RunCompleted}, RouteOptions{})
	if len(v.Segments) != 0 || v.CurrentPosition != nil || v.Bounds != nil || len(v.FullPath) != 0 {
		t.Fatalf("expected an empty view, got %+v", v)
	}
	if len(v.FeatureCollection().Features) != 0 {
		t.Error("expected no features")
	}
}

func TestRouteView_FeatureCollection(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError)()

	v := RouteForRun(liveRun(), RouteOptions{Now: at(40)})
	b, err := json.Marshal(v.FeatureCollection())
	if err != nil {
		t.Fatal(err)
	}
	res := gjson.ParseBytes(b)
	if n := res.Get("features.#").Int(); n != 4 {
		t.Fatalf("got %d features, want 4", n)
	}
	if k := res.Get("features.0.properties.kind").String(); k != "overview" {
		t.Errorf("first feature kind %q", k)
	}
	if c := res.Get("features.1.properties.color").String(); c != params.SegmentPalette[0] {
		t.Errorf("segment color %q", c)
	}
	if g := res.Get("features.3.geometry.type").String(); g != "Point" {
		t.Errorf("current position geometry %q", g)
	}
	if res.Get("bbox.#").Int() != 4 {
		t.Error("missing bbox")
	}
}

func TestLoadAggregate(t *testing.T) {
	s := newTestStore(t)
	for _, d := range []runtrack.Driver{{ID: "ana", Shift: "morning"}, {ID: "caio", Shift: "night"}} {
		if err := s.PutDriver(d); err != nil {
			t.Fatal(err)
		}
	}
	runs := []*runtrack.Run{
		{
			ID: "r1", DriverID: "ana", VehicleID: "truck-7", StartMileage: 100, EndMileage: f64(150),
			StartTime: at(0), EndTime: atp(60), Status: runtrack.RunCompleted,
			Stops: []runtrack.Stop{
				{Name: "X", Status: runtrack.StopCompleted, ArrivalTime: atp(20), DepartureTime: atp(30), MileageAtStop: f64(120)},
			},
			LocationHistory: track(60),
		},
		{
			ID: "r2", DriverID: "ana", VehicleID: "truck-7", StartMileage: 150, EndMileage: f64(200),
			StartTime: at(90), EndTime: atp(150), Status: runtrack.RunCompleted,
		},
		{
			ID: "r3", DriverID: "caio", VehicleID: "truck-7", StartMileage: 200,
			StartTime: at(600), Status: runtrack.RunInProgress,
		},
	}
	for _, r := range runs {
		if err := s.PutRun(r); err != nil {
			t.Fatal(err)
		}
	}

	key := runtrack.RunKey{VehicleID: "truck-7", Shift: "morning", Date: "2024-11-18"}
	agg, err := LoadAggregate(s, key, time.UTC, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(agg.OriginalRuns) != 2 || agg.TotalDistance != 100 || len(agg.IdleGaps) != 1 {
		t.Fatalf("aggregate runs %d distance %v gaps %d", len(agg.OriginalRuns), agg.TotalDistance, len(agg.IdleGaps))
	}

	v := RouteForAggregate(agg, RouteOptions{Location: time.UTC})
	if v.Key == nil || *v.Key != key || v.RunID != "truck-7/morning/2024-11-18" {
		t.Errorf("key %v run %s", v.Key, v.RunID)
	}
	if v.Summary.Runs != 2 || v.Summary.TotalDistance != 100 || len(v.IdleGaps) != 1 {
		t.Errorf("summary %+v", v.Summary)
	}
	if len(v.Segments) != 1 || *v.Segments[0].Distance != 20 {
		t.Errorf("segments %+v", v.Segments)
	}

	night, err := LoadAggregate(s, runtrack.RunKey{VehicleID: "truck-7", Shift: "night", Date: "2024-11-18"}, time.UTC, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !night.InProgress() || len(night.OriginalRuns) != 1 {
		t.Errorf("night aggregate %+v", night)
	}

	_, err = LoadAggregate(s, runtrack.RunKey{VehicleID: "truck-7", Shift: "morning", Date: "2024-11-19"}, time.UTC, nil)
	if !errors.Is(err, ErrNoRuns) {
		t.Errorf("expected ErrNoRuns, got %v", err)
	}
	if _, err := LoadAggregate(s, runtrack.RunKey{VehicleID: "truck-7", Shift: "morning", Date: "18/11"}, time.UTC, nil); err == nil {
		t.Error("expected a bad date error")
	}

	all, err := Aggregates(s, runtrack.RunFilter{}, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("got %d aggregates, want 2", len(all))
	}
}
