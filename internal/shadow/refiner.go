package shadow

import (
	"sort"

	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
	"github.com/joshband/copy-that-sub002/internal/provider"
)

// BoundaryRefiner sharpens the scorer's region boundaries with a promptable
// segmentation model. High-confidence interior points of the probability map
// become prompts; model regions containing at least one prompt replace the
// soft boundary there. This is a capability, not a requirement: when the
// backing model is unavailable the unrefined map passes through untouched.
type BoundaryRefiner struct {
	handle provider.InferenceHandle

	// PromptThreshold selects interior seed points
	PromptThreshold float64

	// MaxPrompts bounds the number of seeds sampled
	MaxPrompts int

	// ModelSize is the square input resolution the model expects
	ModelSize int
}

// NewBoundaryRefiner creates a refiner backed by the given handle.
func NewBoundaryRefiner(handle provider.InferenceHandle) *BoundaryRefiner {
	return &BoundaryRefiner{
		handle:          handle,
		PromptThreshold: 0.85,
		MaxPrompts:      16,
		ModelSize:       512,
	}
}

// Available reports whether the backing segmentation model loaded.
func (r *BoundaryRefiner) Available() bool {
	return r.handle != nil && r.handle.Available()
}

// Refine returns a sharpened copy of prob, or a model-unavailable error when
// the segmentation model is missing (callers treat that as "skip").
func (r *BoundaryRefiner) Refine(pre *Preprocessed, prob *SoftMask) (*SoftMask, error) {
	if !r.Available() {
		return nil, apperrors.NewModelUnavailableError(provider.ModelSegment, nil)
	}

	prompts := r.samplePrompts(prob)
	if len(prompts) == 0 {
		// Nothing confident enough to seed from; refining would hallucinate
		return prob.Clone(), nil
	}

	input, err := imageTensor(pre.Img, r.ModelSize, r.ModelSize)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError(provider.ModelSegment, err)
	}
	output, err := r.handle.Run(input)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError(provider.ModelSegment, err)
	}

	model, err := planeFromTensor(output)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError(provider.ModelSegment, err)
	}
	model = model.Resize(prob.Width, prob.Height)

	// Keep only model regions corroborated by a prompt, then blend: inside
	// accepted regions the model's crisp boundary wins, elsewhere the
	// original probabilities stand.
	accepted := acceptPromptedRegions(model.Threshold(0.5), prob.Width, prob.Height, prompts)
	out := prob.Clone()
	for i := range out.Pix {
		if accepted[i] {
			out.Pix[i] = clamp01(0.25*prob.Pix[i] + 0.75*model.Pix[i])
		}
	}
	return out, nil
}

// samplePrompts picks up to MaxPrompts local maxima above the threshold,
// spaced apart so prompts cover distinct regions.
func (r *BoundaryRefiner) samplePrompts(prob *SoftMask) [][2]int {
	type peak struct {
		x, y int
		v    float64
	}
	var peaks []peak
	w, h := prob.Width, prob.Height
	step := 4
	for y := step; y < h-step; y += step {
		for x := step; x < w-step; x += step {
			v := prob.At(x, y)
			if v < r.PromptThreshold {
				continue
			}
			if v >= prob.At(x-step, y) && v >= prob.At(x+step, y) &&
				v >= prob.At(x, y-step) && v >= prob.At(x, y+step) {
				peaks = append(peaks, peak{x, y, v})
			}
		}
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].v > peaks[j].v })

	minDist := (w + h) / 40
	if minDist < 8 {
		minDist = 8
	}
	var prompts [][2]int
	for _, p := range peaks {
		if len(prompts) >= r.MaxPrompts {
			break
		}
		tooClose := false
		for _, q := range prompts {
			dx, dy := p.x-q[0], p.y-q[1]
			if dx*dx+dy*dy < minDist*minDist {
				tooClose = true
				break
			}
		}
		if !tooClose {
			prompts = append(prompts, [2]int{p.x, p.y})
		}
	}
	return prompts
}

// acceptPromptedRegions keeps connected components of the model mask that
// contain at least one prompt point.
func acceptPromptedRegions(mask []bool, w, h int, prompts [][2]int) []bool {
	out := make([]bool, len(mask))
	visited := make([]bool, len(mask))

	for _, p := range prompts {
		start := p[1]*w + p[0]
		if start < 0 || start >= len(mask) || !mask[start] || visited[start] {
			continue
		}
		queue := []int{start}
		visited[start] = true
		out[start] = true
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if mask[j] && !visited[j] {
					visited[j] = true
					out[j] = true
					queue = append(queue, j)
				}
			}
		}
	}
	return out
}
