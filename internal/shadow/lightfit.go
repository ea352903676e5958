package shadow

import (
	"math"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
	"github.com/joshband/copy-that-sub002/pkg/models"
)

// LightDirectionFitter solves the constrained least-squares problem
//
//	S(x) ≈ max(0, N(x)·L) + ambient
//
// for the unit light vector L and scalar ambient, against the shading layer
// restricted to pixels the classical detector marks as lit. On lit pixels the
// max() is inactive, so the system is linear in (L, ambient).
type LightDirectionFitter struct {
	// SampleStride subsamples the pixel grid to keep the system small
	SampleStride int

	// MinSamples below which the fit is not attempted
	MinSamples int

	// ResidualTolerance is the RMS residual above which the fit is declared
	// divergent and the direction reported unknown
	ResidualTolerance float64
}

// NewLightDirectionFitter creates a fitter with the stock tolerances.
func NewLightDirectionFitter() *LightDirectionFitter {
	return &LightDirectionFitter{
		SampleStride:      4,
		MinSamples:        64,
		ResidualTolerance: 0.18,
	}
}

// Fit estimates the dominant light. Returns a fit-divergence error when the
// residual exceeds tolerance or too few lit samples exist; it never guesses.
func (f *LightDirectionFitter) Fit(shading *SoftMask, normals *DepthNormals, lit []bool) (*models.LightDirection, error) {
	if shading == nil || normals == nil {
		return nil, apperrors.NewFitDivergenceError(1, f.ResidualTolerance)
	}
	if !shading.Matches(normals.Width, normals.Height) {
		return nil, apperrors.NewDimensionMismatchError("shading and normals dimensions differ")
	}

	w, h := normals.Width, normals.Height
	stride := f.SampleStride
	if stride < 1 {
		stride = 1
	}

	var rows []int
	for y := 0; y < h; y += stride {
		for x := 0; x < w; x += stride {
			i := y*w + x
			if i < len(lit) && lit[i] {
				rows = append(rows, i)
			}
		}
	}
	if len(rows) < f.MinSamples {
		return nil, apperrors.NewFitDivergenceError(1, f.ResidualTolerance)
	}

	// A is [N·x N·y N·z 1], b is the observed shading
	a := mat.NewDense(len(rows), 4, nil)
	b := mat.NewVecDense(len(rows), nil)
	for r, i := range rows {
		a.Set(r, 0, normals.NX[i])
		a.Set(r, 1, normals.NY[i])
		a.Set(r, 2, normals.NZ[i])
		a.Set(r, 3, 1)
		b.SetVec(r, shading.Pix[i])
	}

	var qr mat.QR
	qr.Factorize(a)
	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		return nil, apperrors.NewFitDivergenceError(1, f.ResidualTolerance)
	}

	lx, ly, lz, ambient := x.AtVec(0), x.AtVec(1), x.AtVec(2), x.AtVec(3)
	norm := math.Sqrt(lx*lx + ly*ly + lz*lz)
	if norm < 1e-6 {
		return nil, apperrors.NewFitDivergenceError(1, f.ResidualTolerance)
	}
	lx, ly, lz = lx/norm, ly/norm, lz/norm

	// RMS residual of the solved system
	var fitted mat.VecDense
	fitted.MulVec(a, &x)
	sum := 0.0
	for r := 0; r < len(rows); r++ {
		d := fitted.AtVec(r) - b.AtVec(r)
		sum += d * d
	}
	residual := math.Sqrt(sum / float64(len(rows)))

	if residual > f.ResidualTolerance {
		return nil, apperrors.NewFitDivergenceError(residual, f.ResidualTolerance)
	}

	confidence := 1 - residual/f.ResidualTolerance
	azimuth, elevation := anglesFromVector(lx, ly, lz)
	return &models.LightDirection{
		X:            lx,
		Y:            ly,
		Z:            lz,
		AzimuthDeg:   azimuth,
		ElevationDeg: elevation,
		Ambient:      clamp01(ambient),
		Residual:     residual,
		Confidence:   clamp01(confidence),
	}, nil
}

// anglesFromVector converts a unit light vector to (azimuth, elevation).
// Azimuth is degrees clockwise from image-top, naming where the light comes
// FROM; elevation is degrees out of the image plane.
func anglesFromVector(lx, ly, lz float64) (float64, float64) {
	// Image Y grows downward, so a light from the top has ly < 0
	azimuth := math.Atan2(lx, -ly) * 180 / math.Pi
	if azimuth < 0 {
		azimuth += 360
	}
	planar := math.Hypot(lx, ly)
	elevation := math.Atan2(lz, planar) * 180 / math.Pi
	return azimuth, elevation
}

// PredictShadowMask renders the shadow occupancy the fitted light implies:
// pixels whose Lambertian response max(0, N·L) + ambient is low. Used for
// the physics-consistency feature.
func PredictShadowMask(light *models.LightDirection, normals *DepthNormals) *SoftMask {
	out := NewSoftMask(normals.Width, normals.Height)
	for i := range out.Pix {
		response := normals.NX[i]*light.X + normals.NY[i]*light.Y + normals.NZ[i]*light.Z
		if response < 0 {
			response = 0
		}
		out.Pix[i] = clamp01(1 - (response + light.Ambient))
	}
	return out
}
