package shadow

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"math"

	"github.com/joshband/copy-that-sub002/pkg/models"
)

// SoftMask is a per-pixel float plane in [0,1], row-major. It carries
// shadow-membership probability for detector outputs and the fused result,
// and doubles as a general float plane for shading/illumination layers.
type SoftMask struct {
	Width  int
	Height int
	Pix    []float64
}

// NewSoftMask creates a zero-filled mask.
func NewSoftMask(width, height int) *SoftMask {
	return &SoftMask{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// At returns the value at (x, y). Out-of-bounds reads return 0.
func (m *SoftMask) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set stores a clamped value at (x, y).
func (m *SoftMask) Set(x, y int, v float64) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = clamp01(v)
}

// Matches reports whether the mask has the given dimensions.
func (m *SoftMask) Matches(width, height int) bool {
	return m.Width == width && m.Height == height
}

// Mean returns the average mask value.
func (m *SoftMask) Mean() float64 {
	if len(m.Pix) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range m.Pix {
		sum += v
	}
	return sum / float64(len(m.Pix))
}

// Clone returns a deep copy.
func (m *SoftMask) Clone() *SoftMask {
	out := NewSoftMask(m.Width, m.Height)
	copy(out.Pix, m.Pix)
	return out
}

// Resize returns a bilinearly resampled copy at the target dimensions.
func (m *SoftMask) Resize(width, height int) *SoftMask {
	if m.Matches(width, height) {
		return m.Clone()
	}
	out := NewSoftMask(width, height)
	sx := float64(m.Width) / float64(width)
	sy := float64(m.Height) / float64(height)
	for y := 0; y < height; y++ {
		fy := (float64(y)+0.5)*sy - 0.5
		y0 := int(math.Floor(fy))
		wy := fy - float64(y0)
		y1 := y0 + 1
		if y0 < 0 {
			y0 = 0
		}
		if y1 >= m.Height {
			y1 = m.Height - 1
		}
		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)*sx - 0.5
			x0 := int(math.Floor(fx))
			wx := fx - float64(x0)
			x1 := x0 + 1
			if x0 < 0 {
				x0 = 0
			}
			if x1 >= m.Width {
				x1 = m.Width - 1
			}
			top := m.Pix[y0*m.Width+x0]*(1-wx) + m.Pix[y0*m.Width+x1]*wx
			bot := m.Pix[y1*m.Width+x0]*(1-wx) + m.Pix[y1*m.Width+x1]*wx
			out.Pix[y*width+x] = top*(1-wy) + bot*wy
		}
	}
	return out
}

// Threshold returns a binary view of the mask.
func (m *SoftMask) Threshold(t float64) []bool {
	out := make([]bool, len(m.Pix))
	for i, v := range m.Pix {
		out[i] = v >= t
	}
	return out
}

// ToArtifact renders the mask as a grayscale PNG encoded in base64, suitable
// for the external record.
func (m *SoftMask) ToArtifact() (*models.MaskArtifact, error) {
	gray := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			gray.Pix[y*gray.Stride+x] = uint8(math.Round(clamp01(m.Pix[y*m.Width+x]) * 255))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, err
	}
	return &models.MaskArtifact{
		Width:       m.Width,
		Height:      m.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// boxMeans computes per-pixel box-filtered means of a plane using a
// summed-area table, clamping the window at borders.
func boxMeans(plane []float64, width, height, radius int) []float64 {
	// integral[(y+1)*(w+1)+(x+1)] = sum of plane[0..y][0..x]
	iw := width + 1
	integral := make([]float64, iw*(height+1))
	for y := 0; y < height; y++ {
		rowSum := 0.0
		for x := 0; x < width; x++ {
			rowSum += plane[y*width+x]
			integral[(y+1)*iw+(x+1)] = integral[y*iw+(x+1)] + rowSum
		}
	}
	out := make([]float64, len(plane))
	for y := 0; y < height; y++ {
		y0 := y - radius
		y1 := y + radius + 1
		if y0 < 0 {
			y0 = 0
		}
		if y1 > height {
			y1 = height
		}
		for x := 0; x < width; x++ {
			x0 := x - radius
			x1 := x + radius + 1
			if x0 < 0 {
				x0 = 0
			}
			if x1 > width {
				x1 = width
			}
			sum := integral[y1*iw+x1] - integral[y0*iw+x1] - integral[y1*iw+x0] + integral[y0*iw+x0]
			out[y*width+x] = sum / float64((y1-y0)*(x1-x0))
		}
	}
	return out
}
