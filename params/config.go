package params

type CleanConfig struct {
	// OutlierMaxDistanceKm is the largest plausible jump, in kilometers,
	// between a point and the last accepted point before it.
	OutlierMaxDistanceKm float64
}

var DefaultCleanConfig = CleanConfig{
	OutlierMaxDistanceKm: 5,
}

type SimplificationConfig struct {
	// MinSpacingKm is the minimum distance between two kept points
	// of a thinned overview path.
	MinSpacingKm float64
}

var DefaultSimplificationConfig = SimplificationConfig{
	MinSpacingKm: 0.02,
}

