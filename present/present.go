// Package present derives display state for route segments.
package present

import (
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/types/runtrack"
)

// Color returns the palette color for the segment at index i.
func Color(i int) string {
	n := len(params.SegmentPalette)
	return params.SegmentPalette[((i%n)+n)%n]
}

// Opacity returns the opacity of segment id given the highlighted id.
// An empty highlightID means nothing is highlighted.
func Opacity(id, highlightID string) float64 {
	switch {
	case highlightID == "":
		return params.SegmentOpacityDefault
	case id == highlightID:
		return params.SegmentOpacityHighlighted
	}
	return params.SegmentOpacityDimmed
}

// Apply returns a copy of segments with opacity and highlight state set.
// A highlightID matching no segment is treated as no highlight.
func Apply(segments []runtrack.Segment, highlightID string) []runtrack.Segment {
	if highlightID != "" && !contains(segments, highlightID) {
		highlightID = ""
	}
	out := make([]runtrack.Segment, len(segments))
	for i, s := range segments {
		s.Opacity = Opacity(s.ID, highlightID)
		s.Highlighted = highlightID != "" && s.ID == highlightID
		out[i] = s
	}
	return out
}

func contains(segments []runtrack.Segment, id string) bool {
	for _, s := range segments {
		if s.ID == id {
			return true
		}
	}
	return false
}
