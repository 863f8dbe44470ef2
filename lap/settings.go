package lap

// Reference defaults for TrackerSettings.
const (
	defaultMinSegmentLength     = 3
	defaultMaxDistObjects       = 15.0
	defaultMaxDistSegments      = 15.0
	defaultAltLinkingCostFactor = 1.05
	defaultGapClosingTimeWindow = 4
	defaultMinIntensityRatio    = 0.5
	defaultMaxIntensityRatio    = 4.0
	defaultCutoffPercentile     = 0.9
)

// TrackerSettings holds every numeric threshold of the two-step linking
// pipeline. Build it once before tracking begins; the tracker only reads it.
type TrackerSettings struct {
	// Only segments at least this long take part in gap closing, merging
	// and splitting. Shorter segments keep their spots in the final graph
	// as isolated mini tracks.
	MinSegmentLength int
	// Maximum distance between two spots in consecutive frames for a
	// direct link (step 1).
	MaxDistObjects float64
	// Maximum distance between two segment endpoints for stitching (step 2).
	MaxDistSegments float64
	// Scale factor applied to the cost percentile when pricing track
	// birth and death.
	AltLinkingCostFactor float64
	// Maximum number of frames between two segments that can be gap closed.
	GapClosingTimeWindow int
	// Allowed intensity ratio range for merging and splitting. Ratios
	// outside the range forbid the pairing.
	MinIntensityRatio float64
	MaxIntensityRatio float64
	// Percentile of the finite costs used to calibrate alternative costs,
	// in [0, 1].
	CutoffPercentile float64
	// Measure gap closing distances from a Kalman-predicted endpoint
	// instead of the raw last position of the earlier segment.
	UseMotionPrediction bool
}

// DefaultTrackerSettings returns the reference configuration.
func DefaultTrackerSettings() TrackerSettings {
	return TrackerSettings{
		MinSegmentLength:     defaultMinSegmentLength,
		MaxDistObjects:       defaultMaxDistObjects,
		MaxDistSegments:      defaultMaxDistSegments,
		AltLinkingCostFactor: defaultAltLinkingCostFactor,
		GapClosingTimeWindow: defaultGapClosingTimeWindow,
		MinIntensityRatio:    defaultMinIntensityRatio,
		MaxIntensityRatio:    defaultMaxIntensityRatio,
		CutoffPercentile:     defaultCutoffPercentile,
	}
}
