package shadow

import (
	"math"
)

// ClassicalResult is the heuristic detector output: a graded soft mask plus
// the binary candidate and lit views later stages gate on.
type ClassicalResult struct {
	Mask *SoftMask

	// Candidate marks binary shadow candidates after cleanup
	Candidate []bool

	// Lit marks pixels confidently outside any candidate region; the light
	// fit restricts itself to these to avoid contamination
	Lit []bool
}

// ClassicalDetector is the always-available heuristic candidate detector:
// multi-window adaptive thresholding, binary morphology, connected-component
// area filtering, and a distance-transform confidence ramp. No learned
// weights.
type ClassicalDetector struct {
	// Windows are the local-mean radii, in pixels at working resolution
	Windows []int

	// MarginScale multiplies the global luminance deviation to form the
	// adaptive darkness margin
	MarginScale float64

	// MinAreaFraction discards components smaller than this fraction of
	// the image
	MinAreaFraction float64

	// EdgeRamp is the distance (pixels) over which confidence fades across
	// a region boundary
	EdgeRamp float64
}

// NewClassicalDetector creates a detector with the stock parameters.
func NewClassicalDetector() *ClassicalDetector {
	return &ClassicalDetector{
		Windows:         []int{7, 15, 31},
		MarginScale:     0.5,
		MinAreaFraction: 0.001,
		EdgeRamp:        12,
	}
}

// Detect produces the classical candidate mask for a preprocessed image.
func (d *ClassicalDetector) Detect(pre *Preprocessed) *ClassicalResult {
	w, h := pre.Width, pre.Height
	n := w * h

	margin := d.MarginScale * stddev(pre.Lum)
	if margin < 0.04 {
		margin = 0.04
	}

	// A pixel is a candidate when it undershoots the local mean at several
	// window sizes. A global-mean vote keeps the interiors of regions wider
	// than the largest window from hollowing out.
	votes := make([]int, n)
	for _, radius := range d.Windows {
		means := boxMeans(pre.Lum, w, h, radius)
		for i := range votes {
			if pre.Lum[i] < means[i]-margin {
				votes[i]++
			}
		}
	}
	globalMean := meanPlane(pre.Lum)
	for i := range votes {
		if pre.Lum[i] < globalMean-margin {
			votes[i]++
		}
	}
	need := (len(d.Windows) + 1) / 2
	binary := make([]bool, n)
	for i, v := range votes {
		binary[i] = v >= need
	}

	// Erosion removes speckle, closing heals pinholes
	binary = erode(binary, w, h)
	binary = dilate(binary, w, h)
	binary = dilate(binary, w, h)
	binary = erode(binary, w, h)

	minArea := int(float64(n) * d.MinAreaFraction)
	if minArea < 16 {
		minArea = 16
	}
	binary = dropSmallComponents(binary, w, h, minArea)

	mask := d.gradeByDistance(binary, w, h)

	// Lit pixels sit well clear of any candidate region
	lit := make([]bool, n)
	for i := range lit {
		lit[i] = mask.Pix[i] < 0.25
	}

	return &ClassicalResult{Mask: mask, Candidate: binary, Lit: lit}
}

// gradeByDistance converts the binary mask into graded confidence: deep
// interior pixels approach 1, pixels just outside the boundary fade to 0
// across the edge ramp.
func (d *ClassicalDetector) gradeByDistance(binary []bool, w, h int) *SoftMask {
	inside := chamferDistance(binary, w, h, false)
	outside := chamferDistance(binary, w, h, true)

	mask := NewSoftMask(w, h)
	ramp := d.EdgeRamp
	for i := range binary {
		if binary[i] {
			mask.Pix[i] = 0.5 + 0.5*math.Min(1, inside[i]/ramp)
		} else {
			v := 0.5 - 0.5*math.Min(1, outside[i]/ramp)
			if v < 0 {
				v = 0
			}
			mask.Pix[i] = v
		}
	}
	return mask
}

// chamferDistance computes an approximate Euclidean distance transform with
// the two-pass 3-4 chamfer metric. With invert false it measures, for pixels
// inside the set, the distance to the nearest outside pixel; invert swaps the
// roles. Distances are in pixel units.
func chamferDistance(set []bool, w, h int, invert bool) []float64 {
	const inf = math.MaxFloat64 / 4
	const straight = 3.0
	const diagonal = 4.0

	dist := make([]float64, len(set))
	for i, in := range set {
		if in != invert {
			dist[i] = inf
		}
	}

	// Forward pass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if dist[i] == 0 {
				continue
			}
			best := dist[i]
			if x > 0 && dist[i-1]+straight < best {
				best = dist[i-1] + straight
			}
			if y > 0 {
				if dist[i-w]+straight < best {
					best = dist[i-w] + straight
				}
				if x > 0 && dist[i-w-1]+diagonal < best {
					best = dist[i-w-1] + diagonal
				}
				if x < w-1 && dist[i-w+1]+diagonal < best {
					best = dist[i-w+1] + diagonal
				}
			}
			dist[i] = best
		}
	}

	// Backward pass
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			i := y*w + x
			if dist[i] == 0 {
				continue
			}
			best := dist[i]
			if x < w-1 && dist[i+1]+straight < best {
				best = dist[i+1] + straight
			}
			if y < h-1 {
				if dist[i+w]+straight < best {
					best = dist[i+w] + straight
				}
				if x < w-1 && dist[i+w+1]+diagonal < best {
					best = dist[i+w+1] + diagonal
				}
				if x > 0 && dist[i+w-1]+diagonal < best {
					best = dist[i+w-1] + diagonal
				}
			}
			dist[i] = best
		}
	}

	for i := range dist {
		if dist[i] >= inf {
			dist[i] = float64(w + h)
		} else {
			dist[i] /= straight
		}
	}
	return dist
}

// erode shrinks the set with a 3x3 structuring element.
func erode(set []bool, w, h int) []bool {
	out := make([]bool, len(set))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			keep := set[y*w+x]
			for dy := -1; keep && dy <= 1; dy++ {
				for dx := -1; keep && dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h || !set[ny*w+nx] {
						keep = false
					}
				}
			}
			out[y*w+x] = keep
		}
	}
	return out
}

// dilate grows the set with a 3x3 structuring element.
func dilate(set []bool, w, h int) []bool {
	out := make([]bool, len(set))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hit := false
			for dy := -1; !hit && dy <= 1; dy++ {
				for dx := -1; !hit && dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && ny >= 0 && nx < w && ny < h && set[ny*w+nx] {
						hit = true
					}
				}
			}
			out[y*w+x] = hit
		}
	}
	return out
}

// dropSmallComponents removes 4-connected components below minArea pixels.
func dropSmallComponents(set []bool, w, h, minArea int) []bool {
	out := make([]bool, len(set))
	visited := make([]bool, len(set))
	queue := make([]int, 0, 256)

	for start := range set {
		if !set[start] || visited[start] {
			continue
		}
		queue = queue[:0]
		queue = append(queue, start)
		visited[start] = true
		component := []int{start}

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
				if set[j] && !visited[j] {
					visited[j] = true
					queue = append(queue, j)
					component = append(component, j)
				}
			}
		}

		if len(component) >= minArea {
			for _, i := range component {
				out[i] = true
			}
		}
	}
	return out
}

func meanPlane(plane []float64) float64 {
	if len(plane) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range plane {
		sum += v
	}
	return sum / float64(len(plane))
}

func stddev(plane []float64) float64 {
	if len(plane) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range plane {
		mean += v
	}
	mean /= float64(len(plane))
	variance := 0.0
	for _, v := range plane {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(plane)))
}
