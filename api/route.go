package api

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/fleetd/conceptual"
	"github.com/rotblauer/fleetd/geo/clean"
	"github.com/rotblauer/fleetd/geo/segment"
	"github.com/rotblauer/fleetd/geo/simplify"
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/present"
	"github.com/rotblauer/fleetd/types/runtrack"
)

// RouteOptions parameterize one render of a route.
type RouteOptions struct {
	// Now ends the live leg of an in-progress run. Zero means time.Now.
	Now time.Time
	// Highlight is the id of the selected segment, if any.
	Highlight string
	// Location is used for clock times in the legend. Nil means params.DefaultLocation.
	Location *time.Location
}

// RouteView is everything the map and legend need to draw one run.
type RouteView struct {
	RunID     conceptual.RunID     `json:"runId"`
	Key       *runtrack.RunKey     `json:"key,omitempty"`
	VehicleID conceptual.VehicleID `json:"vehicleId"`
	Status    runtrack.RunStatus   `json:"status"`

	Segments []runtrack.Segment `json:"segments"`
	// FullPath is the simplified overview of the whole filtered history.
	FullPath        orb.LineString          `json:"fullPath"`
	CurrentPosition *runtrack.LocationPoint `json:"currentPosition,omitempty"`
	Bounds          *orb.Bound              `json:"bounds,omitempty"`

	Legend    []LegendEntry      `json:"legend"`
	IdleGaps  []runtrack.IdleGap `json:"idleGaps,omitempty"`
	Progress  runtrack.Progress  `json:"progress"`
	Summary   Summary            `json:"summary"`
	Highlight string             `json:"highlight,omitempty"`
}

// RouteForRun reconstructs the route of a single run.
func RouteForRun(r *runtrack.Run, opts RouteOptions) *RouteView {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Location == nil {
		opts.Location = params.DefaultLocation
	}

	sorted := runtrack.SortedPoints(r.LocationHistory)
	outliers := clean.NewOutlierFilter(params.DefaultCleanConfig.OutlierMaxDistanceKm)
	filtered := make([]runtrack.LocationPoint, 0, len(sorted))
	for _, p := range sorted {
		if outliers.Accept(p) {
			filtered = append(filtered, p)
		}
	}

	built := segment.Build(segment.InputFromRun(r, filtered, opts.Now))
	segments := present.Apply(built, opts.Highlight)

	v := &RouteView{
		RunID:     r.ID,
		VehicleID: r.VehicleID,
		Status:    r.Status,
		Segments:  segments,
		FullPath:  simplify.Route(filtered, params.DefaultSimplificationConfig.MinSpacingKm),
		Legend:    Legend(r.Stops, segments, opts.Location),
		Progress:  r.Progress(),
		Summary:   Summarize(segments, len(sorted), outliers.Rejected),
	}
	for _, s := range segments {
		if s.Highlighted {
			v.Highlight = s.ID
		}
	}
	if len(sorted) > 0 {
		last := sorted[len(sorted)-1]
		v.CurrentPosition = &last
	}
	if len(filtered) > 0 {
		b := runtrack.LineString(filtered).Bound()
		v.Bounds = &b
	}
	return v
}

// RouteForAggregate reconstructs an aggregate as if it were one run,
// adding the idle gaps between its original runs.
func RouteForAggregate(a *runtrack.AggregatedRun, opts RouteOptions) *RouteView {
	v := RouteForRun(a.AsRun(), opts)
	key := a.Key
	v.Key = &key
	v.IdleGaps = a.IdleGaps
	v.Summary.TotalDistance = a.TotalDistance
	v.Summary.Runs = len(a.OriginalRuns)
	return v
}

// FeatureCollection renders the view as GeoJSON:
// one LineString per segment, the overview LineString and the current position Point.
func (v *RouteView) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(v.FullPath) > 1 {
		f := geojson.NewFeature(v.FullPath)
		f.ID = "overview"
		f.Properties["kind"] = "overview"
		f.Properties["runId"] = v.RunID.String()
		fc.Append(f)
	}
	for _, s := range v.Segments {
		f := s.Feature()
		f.Properties["kind"] = "segment"
		fc.Append(f)
	}
	if v.CurrentPosition != nil {
		f := geojson.NewFeature(v.CurrentPosition.Point)
		f.ID = "current-position"
		f.Properties["kind"] = "current"
		f.Properties["label"] = runtrack.CurrentSegmentLabel
		f.Properties["time"] = v.CurrentPosition.Time.Format(time.RFC3339)
		fc.Append(f)
	}
	if v.Bounds != nil {
		fc.BBox = geojson.NewBBox(*v.Bounds)
	}
	return fc
}
