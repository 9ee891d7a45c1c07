package influxdb

import (
	"errors"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/fleetd/api"
	"github.com/rotblauer/fleetd/params"
)

var ErrNotConfigured = errors.New("influxdb not configured")

// Config addresses an InfluxDB v2 bucket.
type Config struct {
	URL, Token, Org, Bucket string
}

// DefaultConfig reads the INFLUXDB_* environment.
func DefaultConfig() Config {
	return Config{
		URL:    params.INFLUXDB_URL,
		Token:  params.INFLUXDB_TOKEN,
		Org:    params.INFLUXDB_ORG,
		Bucket: params.INFLUXDB_BUCKET,
	}
}

// SegmentPoints renders one "segment" point per segment of the view,
// stamped at the segment's end.
func SegmentPoints(view *api.RouteView) []*write.Point {
	points := make([]*write.Point, 0, len(view.Segments))
	for _, s := range view.Segments {
		p := influxdb2.NewPointWithMeasurement("segment").
			SetTime(s.End).
			AddTag("run", view.RunID.String()).
			AddTag("vehicle", view.VehicleID.String()).
			AddTag("segment", s.ID).
			AddField("travel_minutes", int(s.TravelTime.Minutes())).
			AddField("points", len(s.Path))
		if s.StopName != "" {
			p.AddTag("stop", s.StopName)
		}
		if s.StopTime != nil {
			p.AddField("stop_minutes", int(s.StopTime.Minutes()))
		}
		if s.Distance != nil {
			p.AddField("distance", *s.Distance)
		}
		if s.Current {
			p.AddField("current", 1)
		}
		points = append(points, p)
	}
	return points
}

// ExportSegments posts the view's segments to InfluxDB.
// The last write error encountered is returned.
func ExportSegments(cfg Config, view *api.RouteView) error {
	if cfg.URL == "" || cfg.Bucket == "" {
		return ErrNotConfigured
	}
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	// Errors must be read before any write, and drained, or the writer blocks.
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for _, p := range SegmentPoints(view) {
		writeAPI.WritePoint(p)
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}
