package shadow

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/joshband/copy-that-sub002/internal/provider"
)

// ImageNet normalization constants, the convention both backing models share.
var (
	tensorMean = [3]float32{0.485, 0.456, 0.406}
	tensorStd  = [3]float32{0.229, 0.224, 0.225}
)

// imageTensor resizes an image to targetW x targetH and packs it as a
// normalized NCHW float32 tensor [1, 3, H, W].
func imageTensor(img image.Image, targetW, targetH int) (provider.Tensor, error) {
	resized := imaging.Resize(img, targetW, targetH, imaging.Lanczos)
	w, h := resized.Bounds().Dx(), resized.Bounds().Dy()

	data := make([]float32, 3*w*h)
	plane := w * h
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := resized.PixOffset(x, y)
			i := y*w + x
			for ch := 0; ch < 3; ch++ {
				v := float32(resized.Pix[o+ch]) / 255.0
				data[ch*plane+i] = (v - tensorMean[ch]) / tensorStd[ch]
			}
		}
	}
	return provider.NewTensor(data, 1, 3, int64(h), int64(w))
}

// planeFromTensor interprets a model output tensor as a single 2D plane,
// min-max normalized into [0,1]. Accepts [H,W], [1,H,W], or [1,1,H,W].
func planeFromTensor(t provider.Tensor) (*SoftMask, error) {
	dims := t.Shape
	for len(dims) > 2 && dims[0] == 1 {
		dims = dims[1:]
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("expected 2D output plane, got shape %v", t.Shape)
	}
	h, w := int(dims[0]), int(dims[1])
	if w*h != len(t.Data) || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("output plane %dx%d does not match %d values", w, h, len(t.Data))
	}

	lo, hi := t.Data[0], t.Data[0]
	for _, v := range t.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := float64(hi - lo)
	if span < 1e-9 {
		span = 1
	}

	out := NewSoftMask(w, h)
	for i, v := range t.Data {
		out.Pix[i] = (float64(v) - float64(lo)) / span
	}
	return out, nil
}
