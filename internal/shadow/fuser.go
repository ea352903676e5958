package shadow

import (
	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
)

// Signal is one detector's contribution to the fused mask. A nil Mask means
// the detector did not produce output this invocation; its weight drops out
// and the remaining weights renormalize.
type Signal struct {
	Name   string
	Mask   *SoftMask
	Weight float64
}

// MaskFuser combines the classical, learned, and shading-derived signals
// into one soft mask with per-pixel confidence. Degrades gracefully: any
// subset of signals produces a valid mask, only the reported contributor
// manifest and confidence change.
type MaskFuser struct{}

// NewMaskFuser creates a fuser.
func NewMaskFuser() *MaskFuser {
	return &MaskFuser{}
}

// Fuse produces the weighted combination at width x height. Every present
// signal must already match those dimensions; a mismatch is an invariant
// violation and fatal.
func (f *MaskFuser) Fuse(width, height int, signals []Signal) (*SoftMask, []string, error) {
	total := 0.0
	var contributors []string
	for _, s := range signals {
		if s.Mask == nil {
			continue
		}
		if !s.Mask.Matches(width, height) {
			return nil, nil, apperrors.NewDimensionMismatchError(
				"signal " + s.Name + " does not match fused mask dimensions")
		}
		total += s.Weight
		contributors = append(contributors, s.Name)
	}
	if total == 0 {
		return nil, nil, apperrors.NewInternalError("no signals available to fuse", nil)
	}

	fused := NewSoftMask(width, height)
	for _, s := range signals {
		if s.Mask == nil {
			continue
		}
		w := s.Weight / total
		for i, v := range s.Mask.Pix {
			fused.Pix[i] += w * v
		}
	}
	for i := range fused.Pix {
		fused.Pix[i] = clamp01(fused.Pix[i])
	}
	return fused, contributors, nil
}

// ShadingSignal converts the intrinsic shading layer into a shadow signal:
// low shading corroborates shadow presence.
func ShadingSignal(intrinsic *IntrinsicResult, weight float64) Signal {
	if intrinsic == nil {
		return Signal{Name: "shading", Weight: weight}
	}
	inv := NewSoftMask(intrinsic.Shading.Width, intrinsic.Shading.Height)
	for i, v := range intrinsic.Shading.Pix {
		inv.Pix[i] = clamp01(1 - v)
	}
	return Signal{Name: "shading", Mask: inv, Weight: weight}
}
