// Package tokens maps bounded numeric shadow features onto categorical,
// designer-facing labels. The mapping is pure and deterministic: identical
// feature vectors always produce identical tokens, and every bucket boundary
// is half-open and lower-bound-inclusive so values exactly on a boundary
// always resolve to the same side.
package tokens

// Thresholds is the versioned bucket-boundary configuration. Boundaries are
// ascending; a value lands in bucket i when bounds[i-1] <= v < bounds[i].
// Externalizing these lets thresholds be tuned and unit-tested against fixed
// feature vectors without code changes.
type Thresholds struct {
	Version string

	// Softness boundaries over edge_softness_mean, 5 buckets:
	// very_hard / hard / medium / soft / very_soft
	Softness [4]float64

	// Contrast boundaries over shadow_contrast, 4 buckets:
	// low / medium / high / very_high
	Contrast [3]float64

	// Density boundaries over shadow_area_fraction, 4 buckets:
	// sparse / moderate / heavy / full
	Density [3]float64

	// OverheadElevationDeg: elevation at or above which the direction token
	// collapses to overhead
	OverheadElevationDeg float64

	// FrontBackZ: |Z| at or above which the light sits on the camera axis
	FrontBackZ float64

	// MinDensityForDirection: below this shadow area fraction there is no
	// shadow evidence and direction reports unknown
	MinDensityForDirection float64
}

// DefaultThresholds returns the stock v1 configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Version:                "v1",
		Softness:               [4]float64{0.15, 0.35, 0.60, 0.80},
		Contrast:               [3]float64{0.15, 0.35, 0.60},
		Density:                [3]float64{0.10, 0.35, 0.70},
		OverheadElevationDeg:   70,
		FrontBackZ:             0.9,
		MinDensityForDirection: 0.005,
	}
}

// bucket returns the index of the half-open, lower-bound-inclusive bucket
// that v falls into: the count of boundaries with bound <= v.
func bucket(v float64, bounds []float64) int {
	idx := 0
	for _, b := range bounds {
		if v >= b {
			idx++
		}
	}
	return idx
}
