// Package provider abstracts learned-model loading and inference behind the
// ModelProvider interface so the analysis pipeline has no direct dependency
// on hosting mechanics. Providers load once, then serve concurrent read-only
// inference; they are never mutated after Load.
package provider

import "fmt"

// Well-known model names the pipeline asks for.
const (
	ModelDepth   = "depth"
	ModelSegment = "segment"
)

// Tensor is a dense float32 tensor in NCHW (or smaller) layout.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// NewTensor creates a tensor and validates that the shape matches the data.
func NewTensor(data []float32, shape ...int64) (Tensor, error) {
	n := int64(1)
	for _, d := range shape {
		if d <= 0 {
			return Tensor{}, fmt.Errorf("invalid tensor dimension %d", d)
		}
		n *= d
	}
	if int64(len(data)) != n {
		return Tensor{}, fmt.Errorf("tensor data length %d does not match shape %v", len(data), shape)
	}
	return Tensor{Data: data, Shape: shape}, nil
}

// InferenceHandle is one loaded model. Run must be safe for concurrent use.
// Available reports whether the backing model actually loaded; callers query
// availability instead of assuming presence.
type InferenceHandle interface {
	Name() string
	Available() bool
	Run(input Tensor) (Tensor, error)
}

// ModelProvider resolves model names to inference handles.
//
// Lifecycle: Load once (idempotent), then Get any number of times from any
// goroutine. Get for an unknown or unloadable model returns a handle whose
// Available() is false rather than an error, so callers can degrade.
type ModelProvider interface {
	Load() error
	Get(name string) (InferenceHandle, error)
	// Manifest reports availability per known model name, for health checks.
	Manifest() map[string]bool
}

// unavailableHandle is the universal "model missing" handle.
type unavailableHandle struct {
	name string
}

func (h *unavailableHandle) Name() string    { return h.name }
func (h *unavailableHandle) Available() bool { return false }

func (h *unavailableHandle) Run(Tensor) (Tensor, error) {
	return Tensor{}, fmt.Errorf("model %q is not available", h.name)
}

// Unavailable returns a handle that always reports unavailable.
func Unavailable(name string) InferenceHandle {
	return &unavailableHandle{name: name}
}

// disabledProvider reports every model as unavailable. It backs deployments
// without model files and lets tests exercise every fallback path.
type disabledProvider struct{}

// NewDisabledProvider creates a provider with no models.
func NewDisabledProvider() ModelProvider {
	return &disabledProvider{}
}

func (p *disabledProvider) Load() error { return nil }

func (p *disabledProvider) Get(name string) (InferenceHandle, error) {
	return Unavailable(name), nil
}

func (p *disabledProvider) Manifest() map[string]bool {
	return map[string]bool{ModelDepth: false, ModelSegment: false}
}
