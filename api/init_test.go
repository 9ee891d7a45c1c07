package api

import (
	"log/slog"
	"testing"
	"time"

	"github.com/rotblauer/fleetd/common"
	"github.com/rotblauer/fleetd/state"
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

// track returns one point per minute from 0 to n-1, walking north about 111 m a minute.
func track(n int) []runtrack.LocationPoint {
	out := make([]runtrack.LocationPoint, n)
	for i := range out {
		out[i] = runtrack.NewLocationPoint(float64(i)*0.001, 0, at(i))
	}
	return out
}

// newTestStore opens a writable store in a temp dir and mutes warnings.
func newTestStore(t *testing.T) *state.Store {
	t.Helper()
	reset := common.SlogResetLevel(slog.LevelError)
	t.Cleanup(reset)
	s, err := state.Open(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
