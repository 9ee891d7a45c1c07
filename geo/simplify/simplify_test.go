package simplify

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotblauer/fleetd/common"
	"github.com/rotblauer/fleetd/types/runtrack"
)

var t0 = time.Date(2024, 11, 18, 8, 0, 0, 0, time.UTC)

// ~0.0001 degrees of latitude is ~11 m.
func walk(n int, stepDeg float64) []runtrack.LocationPoint {
	out := make([]runtrack.LocationPoint, n)
	for i := range out {
		out[i] = runtrack.NewLocationPoint(-23.5+float64(i)*stepDeg, -46.6, t0.Add(time.Duration(i)*time.Second))
	}
	return out
}

func TestRoute_ShortInput(t *testing.T) {
	if got := Route(nil, 0.02); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
	one := walk(1, 0)
	if got := Route(one, 0.02); len(got) != 1 || got[0] != one[0].Point {
		t.Fatalf("got %v", got)
	}
}

func TestRoute_Thins(t *testing.T) {
	in := walk(100, 0.0001) // ~11 m steps
	got := Route(in, 0.02)
	if len(got) >= len(in) {
		t.Fatalf("expected thinning, got %d of %d", len(got), len(in))
	}
	if got[0] != in[0].Point {
		t.Error("first point not kept")
	}
	if got[len(got)-1] != in[len(in)-1].Point {
		t.Error("last point not kept")
	}
	// Every pair but the forced tail is over the spacing.
	for i := 1; i < len(got)-1; i++ {
		if d := common.HaversineKm(got[i-1], got[i]); d <= 0.02 {
			t.Fatalf("index %d: spacing %f <= 0.02", i, d)
		}
	}
}

func TestRoute_ForcesLastPoint(t *testing.T) {
	in := []runtrack.LocationPoint{
		runtrack.NewLocationPoint(0, 0, t0),
		runtrack.NewLocationPoint(0.001, 0, t0.Add(time.Second)),   // ~111 m, kept
		runtrack.NewLocationPoint(0.00105, 0, t0.Add(2*time.Second)), // ~5.5 m, forced
	}
	got := Route(in, 0.02)
	want := orb.LineString{{0, 0}, {0, 0.001}, {0, 0.00105}}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRoute_NoDuplicateTail(t *testing.T) {
	in := []runtrack.LocationPoint{
		runtrack.NewLocationPoint(0, 0, t0),
		runtrack.NewLocationPoint(0.001, 0, t0.Add(time.Second)),
	}
	got := Route(in, 0.02)
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestRoute_Stationary(t *testing.T) {
	in := walk(10, 0)
	got := Route(in, 0.02)
	if len(got) != 2 {
		t.Fatalf("stationary track should keep first and last, got %d", len(got))
	}
}
