package shadow

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// IntrinsicResult factors the image into material color and illumination:
// image ≈ Reflectance × Shading. Low shading independently corroborates
// shadow presence for the fuser.
type IntrinsicResult struct {
	Reflectance *SoftMask
	Shading     *SoftMask
}

// IntrinsicDecomposer implements a multi-scale retinex-style factorization:
// large-scale illumination is estimated by heavy Gaussian blurring, the image
// is divided by it (with a floor against blow-up) to recover reflectance, and
// shading is the illumination normalized against its lit level.
type IntrinsicDecomposer struct {
	// Radii are Gaussian blur radii as fractions of the image diagonal
	Radii []float64

	// Floor guards the division
	Floor float64
}

// NewIntrinsicDecomposer creates a decomposer with the stock scales.
func NewIntrinsicDecomposer() *IntrinsicDecomposer {
	return &IntrinsicDecomposer{
		Radii: []float64{0.02, 0.06, 0.15},
		Floor: 0.02,
	}
}

// Decompose factors the preprocessed image. Pure arithmetic, never fails.
func (d *IntrinsicDecomposer) Decompose(pre *Preprocessed) *IntrinsicResult {
	w, h := pre.Width, pre.Height
	diag := math.Hypot(float64(w), float64(h))

	illum := make([]float64, w*h)
	for _, frac := range d.Radii {
		radius := frac * diag
		blurred := gaussianPlane(pre.RawLum, w, h, radius)
		for i, v := range blurred {
			illum[i] += v / float64(len(d.Radii))
		}
	}

	reflectance := NewSoftMask(w, h)
	shading := NewSoftMask(w, h)

	// Normalize shading against the bright end of the illumination estimate
	// so fully lit surfaces land near 1
	litLevel := percentile(illum, 0.9)
	if litLevel < d.Floor {
		litLevel = d.Floor
	}

	for i := range illum {
		il := illum[i]
		if il < d.Floor {
			il = d.Floor
		}
		reflectance.Pix[i] = clamp01(pre.RawLum[i] / il)

		// The illumination layer relative to its lit ceiling; shadows read
		// low here regardless of surface albedo
		shading.Pix[i] = clamp01(il / litLevel)
	}

	return &IntrinsicResult{Reflectance: reflectance, Shading: shading}
}

// gaussianPlane blurs a float plane by routing it through bild's Gaussian
// kernel on a grayscale image. Quantization to 8 bits is acceptable here:
// the plane only feeds large-scale illumination estimates.
func gaussianPlane(plane []float64, w, h int, radius float64) []float64 {
	if radius < 1 {
		out := make([]float64, len(plane))
		copy(out, plane)
		return out
	}
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range plane {
		gray.Pix[i] = uint8(math.Round(clamp01(v) * 255))
	}
	blurred := blur.Gaussian(gray, radius)

	out := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := blurred.At(x, y).RGBA()
			out[y*w+x] = float64(r) / 65535.0
		}
	}
	return out
}

func percentile(plane []float64, p float64) float64 {
	if len(plane) == 0 {
		return 0
	}
	// Histogram percentile; the planes are bounded in [0,1]
	const bins = 1024
	var hist [bins]int
	for _, v := range plane {
		b := int(clamp01(v) * (bins - 1))
		hist[b]++
	}
	target := int(p * float64(len(plane)))
	seen := 0
	for b := 0; b < bins; b++ {
		seen += hist[b]
		if seen >= target {
			return float64(b) / (bins - 1)
		}
	}
	return 1
}
