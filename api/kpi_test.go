package api

import (
	"testing"
	"time"

	"github.com/rotblauer/fleetd/conceptual"
	"github.com/rotblauer/fleetd/types/runtrack"
)

func completedRun(id string, start time.Time, minutes int, startMileage float64, endMileage *float64) *runtrack.Run {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return &runtrack.Run{
		ID: conceptual.RunID(id), VehicleID: "truck-7", StartTime: start, EndTime: &end,
		StartMileage: startMileage, EndMileage: endMileage, Status: runtrack.RunCompleted,
	}
}

func TestComputeKPIs(t *testing.T) {
	day := 24 * time.Hour
	runs := []*runtrack.Run{
		completedRun("a", t0, 60, 100, f64(150)),
		completedRun("b", t0.Add(2*time.Hour), 30, 150, nil),
		// Ends the next day.
		completedRun("c", t0.Add(day), 90, 0, f64(10)),
		// Still open.
		{ID: "d", StartTime: t0, Status: runtrack.RunInProgress},
	}

	k := ComputeKPIs(runs, t0, t0, time.UTC)
	if k.TotalRuns != 2 || k.TotalDistance != 50 || k.AverageDurationMinutes != 45 {
		t.Errorf("one day: %+v", k)
	}

	k = ComputeKPIs(runs, t0, t0.Add(day), time.UTC)
	if k.TotalRuns != 3 || k.TotalDistance != 60 || k.AverageDurationMinutes != 60 {
		t.Errorf("two days: %+v", k)
	}

	if k := ComputeKPIs(nil, t0, t0, time.UTC); k.TotalRuns != 0 || k.AverageDurationMinutes != 0 {
		t.Errorf("empty: %+v", k)
	}
}

func TestRunsPerDay(t *testing.T) {
	day := 24 * time.Hour
	runs := []*runtrack.Run{
		completedRun("a", t0, 60, 0, nil),
		completedRun("b", t0.Add(time.Hour), 60, 0, nil),
		completedRun("c", t0.Add(-2*day), 60, 0, nil),
		completedRun("old", t0.Add(-30*day), 60, 0, nil),
	}
	got := RunsPerDay(runs, t0.Add(3*time.Hour), 7, time.UTC)
	if len(got) != 7 {
		t.Fatalf("got %d days", len(got))
	}
	if got[0].Date != "2024-11-12" || got[6].Date != "2024-11-18" {
		t.Errorf("window %s..%s", got[0].Date, got[6].Date)
	}
	if got[6].Runs != 2 || got[4].Runs != 1 {
		t.Errorf("counts %+v", got)
	}
	total := 0
	for _, d := range got {
		total += d.Runs
	}
	if total != 3 {
		t.Errorf("total %d", total)
	}
}

func TestMergeLive(t *testing.T) {
	open := &runtrack.Run{ID: "b", StartTime: t0.Add(time.Hour), Status: runtrack.RunInProgress}
	stale := completedRun("b", t0.Add(time.Hour), 10, 0, nil)
	done := completedRun("a", t0, 10, 0, nil)
	late := completedRun("c", t0.Add(2*time.Hour), 10, 0, nil)

	got := MergeLive([]*runtrack.Run{open}, []*runtrack.Run{late, stale, done})
	if len(got) != 3 {
		t.Fatalf("got %d runs", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("order %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
	if !got[1].InProgress() {
		t.Error("the in-progress copy should win")
	}
}
