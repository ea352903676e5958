package shadow

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/joshband/copy-that-sub002/pkg/models"
)

// FeatureExtractor computes the bounded numeric descriptors the quantizer
// consumes, from the fused mask, the image, and (when available) the shadow
// occupancy predicted by the fitted light.
type FeatureExtractor struct {
	// MembershipThreshold splits the soft mask into shadow/lit populations
	// for the intensity statistics and defines the boundary for softness
	MembershipThreshold float64
}

// NewFeatureExtractor creates an extractor with the stock thresholds.
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{
		MembershipThreshold: 0.5,
	}
}

// Extract computes all descriptors. Every value is clamped to [0,1];
// PhysicsConsistency stays nil when predicted is nil, never fabricated.
func (e *FeatureExtractor) Extract(pre *Preprocessed, fused *SoftMask, predicted *SoftMask) models.ShadowFeatures {
	var f models.ShadowFeatures
	if fused == nil || len(fused.Pix) == 0 {
		return f
	}

	var shadowSum, litSum float64
	var shadowN, litN int
	for i, v := range fused.Pix {
		if v >= e.MembershipThreshold {
			shadowSum += pre.RawLum[i]
			shadowN++
		} else {
			litSum += pre.RawLum[i]
			litN++
		}
	}

	f.ShadowAreaFraction = clamp01(float64(shadowN) / float64(len(fused.Pix)))
	if shadowN > 0 {
		f.MeanShadowIntensity = clamp01(shadowSum / float64(shadowN))
	}
	if litN > 0 {
		f.MeanLitIntensity = clamp01(litSum / float64(litN))
	}

	// Normalized difference; zero when either population is missing
	if shadowN > 0 && litN > 0 {
		denom := f.MeanLitIntensity + f.MeanShadowIntensity
		if denom > 1e-6 {
			f.ShadowContrast = clamp01((f.MeanLitIntensity - f.MeanShadowIntensity) / denom)
		}
	}

	f.EdgeSoftnessMean = e.edgeSoftness(pre, fused, f.MeanLitIntensity-f.MeanShadowIntensity)

	if predicted != nil {
		f.PhysicsConsistency = e.physicsConsistency(fused, predicted)
	}
	return f
}

// edgeSoftness averages the image luminance gradient along the mask's 0.5
// boundary, normalized by the lit/shadow intensity step. A hard edge spends
// the whole step across a pixel or two (high gradient, softness near 0); a
// penumbra spreads it over many pixels (low gradient, softness near 1).
func (e *FeatureExtractor) edgeSoftness(pre *Preprocessed, fused *SoftMask, intensityStep float64) float64 {
	w, h := fused.Width, fused.Height
	inShadow := func(x, y int) bool {
		return fused.Pix[y*w+x] >= e.MembershipThreshold
	}

	var gradSum float64
	var count int
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			here := inShadow(x, y)
			if here == inShadow(x-1, y) && here == inShadow(x+1, y) &&
				here == inShadow(x, y-1) && here == inShadow(x, y+1) {
				continue
			}
			gx := (pre.RawLum[y*w+x+1] - pre.RawLum[y*w+x-1]) / 2
			gy := (pre.RawLum[(y+1)*w+x] - pre.RawLum[(y-1)*w+x]) / 2
			gradSum += math.Hypot(gx, gy)
			count++
		}
	}
	if count == 0 {
		// No boundary at all; nothing to measure
		return 0
	}
	step := intensityStep
	if step < 0.05 {
		step = 0.05
	}
	// A step edge concentrates ~half the intensity drop in the central
	// difference; normalize so that maps to softness 0
	ratio := (gradSum / float64(count)) / step
	return clamp01(1 - ratio/0.5)
}

// physicsConsistency measures agreement between the fused mask and the
// light-implied shadow mask as a Pearson correlation mapped onto [0,1].
func (e *FeatureExtractor) physicsConsistency(fused, predicted *SoftMask) *float64 {
	if !predicted.Matches(fused.Width, fused.Height) {
		return nil
	}
	n := len(fused.Pix)
	stride := 1
	if n > 1<<16 {
		stride = n / (1 << 16)
	}
	var a, b []float64
	for i := 0; i < n; i += stride {
		a = append(a, fused.Pix[i])
		b = append(b, predicted.Pix[i])
	}
	if len(a) < 2 {
		return nil
	}
	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) {
		// One side is constant: fall back to mean agreement
		r = 1 - math.Abs(meanOf(a)-meanOf(b))*2
	}
	v := clamp01((r + 1) / 2)
	return &v
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
