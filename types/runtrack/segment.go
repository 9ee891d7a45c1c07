package runtrack

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	CurrentSegmentID    = "segment-current"
	CurrentSegmentLabel = "Current position"
)

// Segment is the reconstructed travel-plus-dwell leg of a run ending at one stop.
// The trailing live leg of an open run is a Segment too, with Current set.
type Segment struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	StopName string `json:"stopName,omitempty"`
	// StopIndex is the stop's position in the run's stop list, or -1.
	StopIndex int            `json:"stopIndex"`
	Path      orb.LineString `json:"path"`
	Color     string         `json:"color"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// TravelTime is rounded to the minute.
	TravelTime time.Duration `json:"-"`
	// StopTime is nil while the vehicle is still at the stop.
	StopTime *time.Duration `json:"-"`
	// Distance is odometer kilometers; nil when either end of the leg has no mileage.
	Distance *float64 `json:"distance"`
	Current  bool     `json:"current,omitempty"`

	// Opacity and Highlighted are display state, set per render.
	Opacity     float64 `json:"opacity"`
	Highlighted bool    `json:"highlighted,omitempty"`
}

// StopInProgress is true when the segment's stop has no departure yet.
func (s Segment) StopInProgress() bool {
	return !s.Current && s.StopTime == nil
}

func (s Segment) MarshalJSON() ([]byte, error) {
	type alias Segment
	var stopMinutes *int
	if s.StopTime != nil {
		m := int(s.StopTime.Minutes())
		stopMinutes = &m
	}
	return json.Marshal(struct {
		alias
		TravelMinutes  int  `json:"travelMinutes"`
		StopMinutes    *int `json:"stopMinutes"`
		StopInProgress bool `json:"stopInProgress,omitempty"`
	}{
		alias:          alias(s),
		TravelMinutes:  int(s.TravelTime.Minutes()),
		StopMinutes:    stopMinutes,
		StopInProgress: s.StopInProgress(),
	})
}

// Feature renders the segment as a GeoJSON LineString feature.
func (s Segment) Feature() *geojson.Feature {
	f := geojson.NewFeature(s.Path)
	f.ID = s.ID
	f.Properties["label"] = s.Label
	f.Properties["color"] = s.Color
	f.Properties["opacity"] = s.Opacity
	f.Properties["travelMinutes"] = int(s.TravelTime.Minutes())
	if s.StopName != "" {
		f.Properties["stopName"] = s.StopName
	}
	if s.StopTime != nil {
		f.Properties["stopMinutes"] = int(s.StopTime.Minutes())
	}
	if s.Distance != nil {
		f.Properties["distance"] = *s.Distance
	}
	if s.Current {
		f.Properties["current"] = true
	}
	return f
}
