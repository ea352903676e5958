package tokens

import (
	"math"

	"github.com/joshband/copy-that-sub002/pkg/models"
)

// Token labels, designer-facing.
const (
	SoftnessVeryHard = "very_hard"
	SoftnessHard     = "hard"
	SoftnessMedium   = "medium"
	SoftnessSoft     = "soft"
	SoftnessVerySoft = "very_soft"

	ContrastLow      = "low"
	ContrastMedium   = "medium"
	ContrastHigh     = "high"
	ContrastVeryHigh = "very_high"

	DensitySparse   = "sparse"
	DensityModerate = "moderate"
	DensityHeavy    = "heavy"
	DensityFull     = "full"

	DirectionUnknown  = "unknown"
	DirectionOverhead = "overhead"
	DirectionFront    = "front"
	DirectionBack     = "back"

	StyleFlatAmbient     = "flat_ambient"
	StyleSoftDiffuse     = "soft_diffuse"
	StyleBalanced        = "balanced"
	StyleHardDirectional = "hard_directional"
	StyleDramatic        = "dramatic"
)

var softnessLabels = [5]string{SoftnessVeryHard, SoftnessHard, SoftnessMedium, SoftnessSoft, SoftnessVerySoft}
var contrastLabels = [4]string{ContrastLow, ContrastMedium, ContrastHigh, ContrastVeryHigh}
var densityLabels = [4]string{DensitySparse, DensityModerate, DensityHeavy, DensityFull}

// compassLabels are the 8 compass points, 45 degrees apart, starting at
// image-top and moving clockwise.
var compassLabels = [8]string{
	"top", "top_right", "right", "bottom_right",
	"bottom", "bottom_left", "left", "top_left",
}

// Quantizer maps ShadowFeatures (plus the fitted light) to ShadowTokens.
// Pure and stateless apart from its threshold table.
type Quantizer struct {
	t Thresholds
}

// NewQuantizer creates a quantizer over the given threshold table.
func NewQuantizer(t Thresholds) *Quantizer {
	return &Quantizer{t: t}
}

// Version returns the threshold-table version the quantizer was built with.
func (q *Quantizer) Version() string {
	return q.t.Version
}

// Quantize derives all five tokens from the feature vector. The light may be
// nil, in which case direction is unknown.
func (q *Quantizer) Quantize(f models.ShadowFeatures, light *models.LightDirection) models.ShadowTokens {
	softness := softnessLabels[bucket(f.EdgeSoftnessMean, q.t.Softness[:])]
	contrast := contrastLabels[bucket(f.ShadowContrast, q.t.Contrast[:])]
	density := densityLabels[bucket(f.ShadowAreaFraction, q.t.Density[:])]

	direction, dirConf := q.direction(f, light)

	return models.ShadowTokens{
		Direction:     models.TokenValue{Label: direction, Confidence: dirConf},
		Softness:      models.TokenValue{Label: softness, Confidence: f.EdgeSoftnessMean},
		Contrast:      models.TokenValue{Label: contrast, Confidence: f.ShadowContrast},
		Density:       models.TokenValue{Label: density, Confidence: f.ShadowAreaFraction},
		LightingStyle: q.lightingStyle(f, softness, contrast, light),
	}
}

// direction buckets azimuth/elevation into 8 compass points plus
// overhead/front/back, or unknown when there is no light or no shadow
// evidence to attribute.
func (q *Quantizer) direction(f models.ShadowFeatures, light *models.LightDirection) (string, float64) {
	if light == nil || f.ShadowAreaFraction < q.t.MinDensityForDirection {
		return DirectionUnknown, 0
	}
	if light.ElevationDeg >= q.t.OverheadElevationDeg {
		return DirectionOverhead, light.Confidence
	}
	if light.Z >= q.t.FrontBackZ {
		return DirectionFront, light.Confidence
	}
	if light.Z <= -q.t.FrontBackZ {
		return DirectionBack, light.Confidence
	}

	// 45-degree sectors centered on the compass points; the lower edge of
	// each sector is inclusive
	az := math.Mod(light.AzimuthDeg+22.5, 360)
	if az < 0 {
		az += 360
	}
	sector := int(az/45) % 8
	return compassLabels[sector], light.Confidence
}

// lightingStyle is a composite read of the scene: how the shadow system
// would describe the overall lighting to a designer.
func (q *Quantizer) lightingStyle(f models.ShadowFeatures, softness, contrast string, light *models.LightDirection) models.TokenValue {
	conf := (f.ShadowContrast + f.ShadowAreaFraction) / 2
	switch {
	case f.ShadowAreaFraction < q.t.MinDensityForDirection || contrast == ContrastLow && f.ShadowAreaFraction < q.t.Density[0]:
		return models.TokenValue{Label: StyleFlatAmbient, Confidence: clamp01(1 - conf)}
	case contrast == ContrastVeryHigh && (softness == SoftnessVeryHard || softness == SoftnessHard):
		return models.TokenValue{Label: StyleDramatic, Confidence: conf}
	case softness == SoftnessVeryHard || softness == SoftnessHard:
		return models.TokenValue{Label: StyleHardDirectional, Confidence: conf}
	case softness == SoftnessSoft || softness == SoftnessVerySoft:
		return models.TokenValue{Label: StyleSoftDiffuse, Confidence: conf}
	default:
		return models.TokenValue{Label: StyleBalanced, Confidence: conf}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
