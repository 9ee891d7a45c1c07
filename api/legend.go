package api

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/fleetd/types/runtrack"
)

// LegendEntry describes one stop in the route legend.
// SegmentID is empty for stops without a segment.
type LegendEntry struct {
	Index        int                 `json:"index"`
	Name         string              `json:"name"`
	Status       runtrack.StopStatus `json:"status"`
	Arrival      string              `json:"arrival,omitempty"`
	Mileage      string              `json:"mileage,omitempty"`
	OccupiedCars *int                `json:"occupiedCars,omitempty"`
	EmptyCars    *int                `json:"emptyCars,omitempty"`
	Occupancy    *int                `json:"occupancy,omitempty"`
	SegmentID    string              `json:"segmentId,omitempty"`
	Color        string              `json:"color,omitempty"`
}

// Legend lists the non-canceled stops in declaration order,
// linking each to the segment that ends at it.
func Legend(stops []runtrack.Stop, segments []runtrack.Segment, loc *time.Location) []LegendEntry {
	bySegment := make(map[int]runtrack.Segment, len(segments))
	for _, s := range segments {
		if !s.Current {
			bySegment[s.StopIndex] = s
		}
	}
	entries := make([]LegendEntry, 0, len(stops))
	for i, stop := range stops {
		if stop.Status == runtrack.StopCanceled {
			continue
		}
		e := LegendEntry{
			Index:        i,
			Name:         stop.Name,
			Status:       stop.Status,
			OccupiedCars: stop.CollectedOccupiedCars,
			EmptyCars:    stop.CollectedEmptyCars,
			Occupancy:    stop.Occupancy,
		}
		if stop.ArrivalTime != nil {
			e.Arrival = stop.ArrivalTime.In(loc).Format("15:04")
		}
		if stop.MileageAtStop != nil {
			e.Mileage = humanize.CommafWithDigits(*stop.MileageAtStop, 1) + " km"
		}
		if seg, ok := bySegment[i]; ok {
			e.SegmentID = seg.ID
			e.Color = seg.Color
		}
		entries = append(entries, e)
	}
	return entries
}
