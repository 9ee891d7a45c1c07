package params

// SegmentPalette is cycled by segment index.
var SegmentPalette = [...]string{
	"#3b82f6", // blue
	"#ef4444", // red
	"#10b981", // emerald
	"#f97316", // orange
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#6366f1", // indigo
	"#f59e0b", // amber
	"#14b8a6", // teal
	"#d946ef", // fuchsia
}

// SegmentNeutralColor is used for the live, not-yet-arrived leg.
const SegmentNeutralColor = "#71717a"

const (
	SegmentOpacityDefault     = 0.9
	SegmentOpacityHighlighted = 1.0
	SegmentOpacityDimmed      = 0.3
)
