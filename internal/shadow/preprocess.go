package shadow

import (
	"bytes"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"sort"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
)

// Preprocessed is the normalized working representation every detector reads.
// All planes are row-major at Width x Height; values are in [0,1] unless
// noted. Stages never mutate it.
type Preprocessed struct {
	Width  int
	Height int

	// Original decoded dimensions before any internal downscale
	OrigWidth  int
	OrigHeight int

	// Lum is contrast-stretched perceptual luminance (CIE Luv L)
	Lum []float64

	// RawLum is luminance before contrast stretching; photometric stages
	// (intrinsic decomposition, light fit) need the unstretched values
	RawLum []float64

	// Sat is HSL saturation, a cheap chroma proxy
	Sat []float64

	// CoolBias is blue-vs-red balance in [-1,1]; positive means the pixel
	// is cooler than neutral, the signature of sky-light fill in shadows
	CoolBias []float64

	// Img is the resized working image for model-backed stages
	Img *image.NRGBA
}

// Preprocessor normalizes color space, resizes, and derives the
// illumination-invariant channels. Deterministic and side-effect free.
type Preprocessor struct{}

// NewPreprocessor creates a preprocessor.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Decode decodes raw image bytes, failing with an invalid-input error on
// unreadable, corrupt, or empty data.
func (p *Preprocessor) Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", apperrors.NewInvalidInputError("empty image data", nil)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.NewInvalidInputError("failed to decode image", err)
	}
	return img, format, nil
}

// Process converts an image into the working representation, downscaling so
// that neither dimension exceeds maxDimension (0 disables the downscale).
func (p *Preprocessor) Process(img image.Image, maxDimension int) (*Preprocessed, error) {
	if img == nil {
		return nil, apperrors.NewInvalidInputError("nil image", nil)
	}
	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	if origW == 0 || origH == 0 {
		return nil, apperrors.NewInvalidInputError("image has zero dimensions", nil)
	}

	working := img
	if maxDimension > 0 && (origW > maxDimension || origH > maxDimension) {
		if origW >= origH {
			working = imaging.Resize(img, maxDimension, 0, imaging.Lanczos)
		} else {
			working = imaging.Resize(img, 0, maxDimension, imaging.Lanczos)
		}
	}
	nrgba := imaging.Clone(working)

	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()
	pre := &Preprocessed{
		Width:      w,
		Height:     h,
		OrigWidth:  origW,
		OrigHeight: origH,
		Lum:        make([]float64, w*h),
		RawLum:     make([]float64, w*h),
		Sat:        make([]float64, w*h),
		CoolBias:   make([]float64, w*h),
		Img:        nrgba,
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			o := nrgba.PixOffset(x, y)
			r := float64(nrgba.Pix[o]) / 255.0
			g := float64(nrgba.Pix[o+1]) / 255.0
			b := float64(nrgba.Pix[o+2]) / 255.0

			c := colorful.Color{R: r, G: g, B: b}
			l, _, _ := c.Luv()
			pre.RawLum[i] = clamp01(l)

			_, s, _ := c.Hsl()
			pre.Sat[i] = clamp01(s)

			pre.CoolBias[i] = (b - r) / (b + r + 1e-6)
		}
	}

	pre.Lum = stretchContrast(pre.RawLum)
	return pre, nil
}

// stretchContrast maps the 2nd..98th luminance percentiles onto [0,1],
// making the later adaptive thresholds invariant to global exposure.
func stretchContrast(lum []float64) []float64 {
	if len(lum) == 0 {
		return nil
	}
	sorted := make([]float64, len(lum))
	copy(sorted, lum)
	sort.Float64s(sorted)

	lo := sorted[int(float64(len(sorted)-1)*0.02)]
	hi := sorted[int(float64(len(sorted)-1)*0.98)]
	span := hi - lo
	out := make([]float64, len(lum))
	if span < 1e-6 {
		// Flat image, nothing to stretch
		copy(out, lum)
		return out
	}
	for i, v := range lum {
		out[i] = clamp01((v - lo) / span)
	}
	return out
}
