package shadow

import (
	"github.com/joshband/copy-that-sub002/pkg/tokens"
)

// AnalysisOptions provides flexible configuration for shadow analysis
type AnalysisOptions struct {
	// UseGeometry toggles the depth model and light-direction fit; disabling
	// it trades the direction token for speed
	UseGeometry bool

	// UseRefiner toggles the promptable-segmentation boundary pass when its
	// model is available
	UseRefiner bool

	// EmitMask includes the fused soft mask (base64 PNG) in the result
	EmitMask bool

	// MaxDimension bounds the internal working resolution; 0 disables the
	// downscale
	MaxDimension int

	// Device hint for learned-model execution
	Device string

	// Fusion weights per signal
	ClassicalWeight float64
	LearnedWeight   float64
	ShadingWeight   float64

	// FitResidualTolerance overrides the light fit's divergence tolerance
	// when > 0
	FitResidualTolerance float64

	// Thresholds is the quantizer's versioned bucket table
	Thresholds tokens.Thresholds
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		UseGeometry:     true,
		UseRefiner:      true,
		EmitMask:        false,
		MaxDimension:    1024,
		Device:          "cpu",
		ClassicalWeight: 0.30,
		LearnedWeight:   0.45,
		ShadingWeight:   0.25,
		Thresholds:      tokens.DefaultThresholds(),
	}
}

// FastOptions returns options for quick, heuristics-only analysis
func FastOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.UseGeometry = false
	opts.UseRefiner = false
	opts.MaxDimension = 512
	return opts
}

// GeometryOptions returns options with the full geometric pipeline enabled
func GeometryOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.UseGeometry = true
	opts.UseRefiner = true
	return opts
}

// WithMask returns options that include the fused mask in the result
func (opts AnalysisOptions) WithMask() AnalysisOptions {
	opts.EmitMask = true
	return opts
}

// WithMaxDimension sets the internal downscale bound
func (opts AnalysisOptions) WithMaxDimension(dim int) AnalysisOptions {
	opts.MaxDimension = dim
	return opts
}

// WithDevice sets the learned-model execution hint
func (opts AnalysisOptions) WithDevice(device string) AnalysisOptions {
	opts.Device = device
	return opts
}

// WithoutGeometry disables the depth model and light fit
func (opts AnalysisOptions) WithoutGeometry() AnalysisOptions {
	opts.UseGeometry = false
	return opts
}

// WithThresholds sets a custom quantizer threshold table
func (opts AnalysisOptions) WithThresholds(t tokens.Thresholds) AnalysisOptions {
	opts.Thresholds = t
	return opts
}
