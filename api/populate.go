package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/fleetd/conceptual"
	"github.com/rotblauer/fleetd/events"
	"github.com/rotblauer/fleetd/geo/clean"
	"github.com/rotblauer/fleetd/rundb/cache"
	"github.com/rotblauer/fleetd/stream"
	"github.com/rotblauer/fleetd/types/runtrack"
)

var (
	populatedRuns   = metrics.GetOrRegisterCounter("api/populate/runs", nil)
	droppedPings    = metrics.GetOrRegisterCounter("api/populate/pings/dropped", nil)
	importedDrivers = metrics.GetOrRegisterCounter("api/import/drivers", nil)
)

var ErrStore = errors.New("store failed")

// RunStore is a RunSource that can also write.
type RunStore interface {
	RunSource
	PutRun(r *runtrack.Run) error
	UpdateRun(id conceptual.RunID, fn func(r *runtrack.Run) error) (*runtrack.Run, error)
	PutDriver(d runtrack.Driver) error
}

// cleanPings drops invalid and repeated pings, and sorts the rest by time.
func cleanPings(points []runtrack.LocationPoint, pass func(runtrack.LocationPoint) bool) []runtrack.LocationPoint {
	out := make([]runtrack.LocationPoint, 0, len(points))
	for _, p := range points {
		if !clean.FilterIngest(p) || !pass(p) {
			droppedPings.Inc(1)
			continue
		}
		out = append(out, p)
	}
	runtrack.SortPoints(out)
	return out
}

// Populate validates r, cleans its location history and upserts it.
// The stored run is announced on events.RunPopulatedFeed.
func Populate(store RunStore, r *runtrack.Run) (*runtrack.Run, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	before := len(r.LocationHistory)
	r.LocationHistory = cleanPings(r.LocationHistory, cache.NewDedupePassLRUFunc())
	if dropped := before - len(r.LocationHistory); dropped > 0 {
		slog.Warn("Dropped pings", "run", r.ID, "dropped", dropped, "kept", len(r.LocationHistory))
	}
	if err := store.PutRun(r); err != nil {
		return nil, fmt.Errorf("populate %s: %w: %w", r.ID, ErrStore, err)
	}
	populated(r)
	return r, nil
}

// AppendLocations adds pings to a stored run, skipping any it already has.
func AppendLocations(store RunStore, id conceptual.RunID, points []runtrack.LocationPoint) (*runtrack.Run, error) {
	r, err := store.UpdateRun(id, func(r *runtrack.Run) error {
		pass := cache.NewDedupePassLRUFunc()
		for _, p := range r.LocationHistory {
			pass(p)
		}
		r.LocationHistory = append(r.LocationHistory, cleanPings(points, pass)...)
		runtrack.SortPoints(r.LocationHistory)
		return nil
	})
	if err != nil {
		return nil, err
	}
	populated(r)
	return r, nil
}

func populated(r *runtrack.Run) {
	populatedRuns.Inc(1)
	if last, ok := r.LastPoint(); ok {
		cache.SetLastKnownTTL(r.VehicleID, r.ID, last)
	}
	events.RunPopulatedFeed.Send(r)
}

// ImportResult counts what Import stored.
type ImportResult struct {
	Runs    int
	Drivers int
	Skipped int
}

// Import reads newline-delimited run and driver records from r into store.
// Invalid records are logged and skipped. Import stops at the first storage error.
func Import(ctx context.Context, store RunStore, r io.Reader) (ImportResult, error) {
	res := ImportResult{}
	started := time.Now()
	defer func() {
		slog.Info("Import done",
			"runs", humanize.Comma(int64(res.Runs)),
			"drivers", humanize.Comma(int64(res.Drivers)),
			"skipped", res.Skipped,
			"elapsed", time.Since(started).Round(time.Millisecond))
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	records, errs := stream.ScanRecords(ctx, r)
	for rec := range records {
		switch rec.Kind {
		case stream.RecordRun:
			run := &runtrack.Run{}
			if err := json.Unmarshal(rec.Raw, run); err != nil {
				slog.Warn("Skipping run", "vehicle", rec.Key, "error", err)
				res.Skipped++
				continue
			}
			if _, err := Populate(store, run); err != nil {
				if errors.Is(err, ErrStore) {
					return res, err
				}
				slog.Warn("Skipping run", "run", run.ID, "error", err)
				res.Skipped++
				continue
			}
			res.Runs++
		case stream.RecordDriver:
			d := runtrack.Driver{}
			if err := json.Unmarshal(rec.Raw, &d); err != nil || d.ID.IsEmpty() {
				slog.Warn("Skipping driver", "driver", rec.Key, "error", err)
				res.Skipped++
				continue
			}
			if err := store.PutDriver(d); err != nil {
				return res, err
			}
			importedDrivers.Inc(1)
			res.Drivers++
		}
	}
	if err := <-errs; err != nil && !errors.Is(err, io.EOF) {
		return res, err
	}
	return res, nil
}
