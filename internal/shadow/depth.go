package shadow

import (
	"math"

	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
	"github.com/joshband/copy-that-sub002/internal/provider"
)

// DepthNormals holds a relative depth map and the surface normals derived
// from it, all at working resolution. Normals are unit length in camera
// coordinates (X right, Y down, Z toward viewer).
type DepthNormals struct {
	Width  int
	Height int
	Depth  []float64
	NX     []float64
	NY     []float64
	NZ     []float64
}

// DepthNormalEstimator runs a pre-trained monocular depth model and derives
// normals from finite-difference depth gradients.
type DepthNormalEstimator struct {
	handle provider.InferenceHandle

	// ModelSize is the square input resolution the model expects
	ModelSize int

	// DepthScale converts relative depth units into pixel-comparable units
	// before differentiation; larger values produce stronger surface tilt
	DepthScale float64
}

// NewDepthNormalEstimator creates an estimator backed by the given handle.
func NewDepthNormalEstimator(handle provider.InferenceHandle) *DepthNormalEstimator {
	return &DepthNormalEstimator{
		handle:     handle,
		ModelSize:  256,
		DepthScale: 64,
	}
}

// Available reports whether the backing depth model loaded.
func (e *DepthNormalEstimator) Available() bool {
	return e.handle != nil && e.handle.Available()
}

// Estimate infers relative depth and derives normals. Returns a
// model-unavailable error when the depth model is missing.
func (e *DepthNormalEstimator) Estimate(pre *Preprocessed) (*DepthNormals, error) {
	if !e.Available() {
		return nil, apperrors.NewModelUnavailableError(provider.ModelDepth, nil)
	}

	input, err := imageTensor(pre.Img, e.ModelSize, e.ModelSize)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError(provider.ModelDepth, err)
	}
	output, err := e.handle.Run(input)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError(provider.ModelDepth, err)
	}
	plane, err := planeFromTensor(output)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError(provider.ModelDepth, err)
	}

	depth := plane.Resize(pre.Width, pre.Height)
	return NormalsFromDepth(depth.Pix, pre.Width, pre.Height, e.DepthScale), nil
}

// NormalsFromDepth derives unit surface normals from a depth plane using
// central finite differences (forward/backward at borders).
func NormalsFromDepth(depth []float64, w, h int, scale float64) *DepthNormals {
	dn := &DepthNormals{
		Width:  w,
		Height: h,
		Depth:  depth,
		NX:     make([]float64, w*h),
		NY:     make([]float64, w*h),
		NZ:     make([]float64, w*h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x

			x0, x1 := x-1, x+1
			if x0 < 0 {
				x0 = 0
			}
			if x1 >= w {
				x1 = w - 1
			}
			dzdx := scale * (depth[y*w+x1] - depth[y*w+x0]) / float64(x1-x0+boolToInt(x1 == x0))

			y0, y1 := y-1, y+1
			if y0 < 0 {
				y0 = 0
			}
			if y1 >= h {
				y1 = h - 1
			}
			dzdy := scale * (depth[y1*w+x] - depth[y0*w+x]) / float64(y1-y0+boolToInt(y1 == y0))

			nx, ny, nz := -dzdx, -dzdy, 1.0
			norm := math.Sqrt(nx*nx + ny*ny + nz*nz)
			dn.NX[i] = nx / norm
			dn.NY[i] = ny / norm
			dn.NZ[i] = nz / norm
		}
	}
	return dn
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
