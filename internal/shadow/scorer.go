package shadow

import (
	"math"
)

// LearnedShadowScorer produces a shadow-probability map from three
// physically-motivated cues computed per pyramid level: relative local
// darkness, chroma attenuation, and cool-hue shift (sky-light fill inside
// shadows pushes hue toward blue). The cues are combined with logistic
// weights fitted offline; coarse levels localize regions, fine levels keep
// boundaries.
type LearnedShadowScorer struct {
	// Levels are pyramid downscale factors, coarse to fine
	Levels []int

	// LevelWeights blend the per-level probability maps; same length as
	// Levels, normalized at construction
	LevelWeights []float64

	// Logistic combination weights: bias, darkness, chroma, cool
	Bias        float64
	DarknessW   float64
	ChromaW     float64
	CoolShiftW  float64
	LocalRadius int
}

// NewLearnedShadowScorer creates a scorer with the stock weights.
func NewLearnedShadowScorer() *LearnedShadowScorer {
	return &LearnedShadowScorer{
		Levels:       []int{4, 2, 1},
		LevelWeights: []float64{0.25, 0.35, 0.40},
		Bias:         -2.6,
		DarknessW:    6.5,
		ChromaW:      2.2,
		CoolShiftW:   1.8,
		LocalRadius:  21,
	}
}

// Score computes the multi-scale probability map at working resolution.
func (s *LearnedShadowScorer) Score(pre *Preprocessed) *SoftMask {
	w, h := pre.Width, pre.Height
	acc := NewSoftMask(w, h)
	total := 0.0

	for li, factor := range s.Levels {
		lw, lh := w/factor, h/factor
		if lw < 8 || lh < 8 {
			continue
		}
		weight := s.LevelWeights[li]
		level := s.scoreLevel(pre, lw, lh, factor)
		up := level.Resize(w, h)
		for i := range acc.Pix {
			acc.Pix[i] += weight * up.Pix[i]
		}
		total += weight
	}

	if total == 0 {
		return acc
	}
	for i := range acc.Pix {
		acc.Pix[i] = clamp01(acc.Pix[i] / total)
	}
	return acc
}

// scoreLevel evaluates the cues on a downsampled grid.
func (s *LearnedShadowScorer) scoreLevel(pre *Preprocessed, lw, lh, factor int) *SoftMask {
	lum := downsamplePlane(pre.Lum, pre.Width, pre.Height, lw, lh)
	sat := downsamplePlane(pre.Sat, pre.Width, pre.Height, lw, lh)
	cool := downsamplePlane(pre.CoolBias, pre.Width, pre.Height, lw, lh)

	radius := s.LocalRadius / factor
	if radius < 3 {
		radius = 3
	}
	lumMean := boxMeans(lum, lw, lh, radius)
	satMean := boxMeans(sat, lw, lh, radius)

	out := NewSoftMask(lw, lh)
	for i := range out.Pix {
		// Darkness relative to the local neighborhood
		darkness := (lumMean[i] - lum[i]) / (lumMean[i] + 1e-3)
		if darkness < 0 {
			darkness = 0
		}

		// Shadowed surfaces lose chroma relative to their surroundings
		chroma := (satMean[i] - sat[i]) / (satMean[i] + 1e-3)
		if chroma < 0 {
			chroma = 0
		}

		// Cool-hue shift, already signed
		coolShift := cool[i]
		if coolShift < 0 {
			coolShift = 0
		}

		z := s.Bias + s.DarknessW*darkness + s.ChromaW*chroma + s.CoolShiftW*coolShift
		out.Pix[i] = sigmoid(z)
	}
	return out
}

// downsamplePlane box-averages a plane onto a coarser grid.
func downsamplePlane(plane []float64, w, h, lw, lh int) []float64 {
	out := make([]float64, lw*lh)
	for ly := 0; ly < lh; ly++ {
		y0 := ly * h / lh
		y1 := (ly + 1) * h / lh
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for lx := 0; lx < lw; lx++ {
			x0 := lx * w / lw
			x1 := (lx + 1) * w / lw
			if x1 <= x0 {
				x1 = x0 + 1
			}
			sum := 0.0
			for y := y0; y < y1 && y < h; y++ {
				for x := x0; x < x1 && x < w; x++ {
					sum += plane[y*w+x]
				}
			}
			out[ly*lw+lx] = sum / float64((y1-y0)*(x1-x0))
		}
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
