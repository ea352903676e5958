package shadow

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"math"
	"testing"
)

func TestSoftMask_AtSet(t *testing.T) {
	m := NewSoftMask(10, 8)
	if m.Width != 10 || m.Height != 8 || len(m.Pix) != 80 {
		t.Fatalf("Unexpected mask geometry: %dx%d, %d pixels", m.Width, m.Height, len(m.Pix))
	}

	m.Set(3, 2, 0.75)
	if got := m.At(3, 2); got != 0.75 {
		t.Errorf("Expected 0.75, got %v", got)
	}
	if got := m.At(0, 0); got != 0 {
		t.Errorf("Expected zero default, got %v", got)
	}
}

func TestSoftMask_Resize(t *testing.T) {
	m := NewSoftMask(4, 4)
	for i := range m.Pix {
		m.Pix[i] = 0.5
	}

	up := m.Resize(16, 12)
	if !up.Matches(16, 12) {
		t.Fatalf("Expected 16x12 after resize, got %dx%d", up.Width, up.Height)
	}
	for i, v := range up.Pix {
		if math.Abs(v-0.5) > 1e-9 {
			t.Fatalf("Expected uniform value preserved at index %d, got %v", i, v)
		}
	}
}

func TestSoftMask_ResizePreservesGradientOrdering(t *testing.T) {
	m := NewSoftMask(8, 1)
	for x := 0; x < 8; x++ {
		m.Set(x, 0, float64(x)/7)
	}

	up := m.Resize(32, 1)
	for x := 1; x < 32; x++ {
		if up.At(x, 0) < up.At(x-1, 0) {
			t.Fatalf("Expected monotonic values after resize, broke at x=%d", x)
		}
	}
}

func TestSoftMask_Threshold(t *testing.T) {
	m := NewSoftMask(2, 2)
	m.Pix = []float64{0.1, 0.5, 0.9, 0.49}

	bin := m.Threshold(0.5)
	want := []bool{false, true, true, false}
	for i := range want {
		if bin[i] != want[i] {
			t.Errorf("Threshold mismatch at index %d: got %v, want %v", i, bin[i], want[i])
		}
	}
}

func TestSoftMask_Mean(t *testing.T) {
	m := NewSoftMask(2, 2)
	m.Pix = []float64{0, 0.5, 0.5, 1}
	if got := m.Mean(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected mean 0.5, got %v", got)
	}
}

func TestSoftMask_ToArtifact(t *testing.T) {
	m := NewSoftMask(6, 4)
	for i := range m.Pix {
		m.Pix[i] = float64(i) / float64(len(m.Pix)-1)
	}

	artifact, err := m.ToArtifact()
	if err != nil {
		t.Fatalf("ToArtifact failed: %v", err)
	}
	if artifact.Width != 6 || artifact.Height != 4 {
		t.Errorf("Expected 6x4 artifact, got %dx%d", artifact.Width, artifact.Height)
	}
	if artifact.MimeType != "image/png" {
		t.Errorf("Expected image/png, got %q", artifact.MimeType)
	}

	// The payload must decode back to a PNG of the same dimensions
	raw, err := base64.StdEncoding.DecodeString(artifact.ImageBase64)
	if err != nil {
		t.Fatalf("Artifact payload is not valid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Artifact payload is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
		t.Errorf("Decoded PNG has wrong dimensions: %v", img.Bounds())
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		if got := clamp01(tt.in); got != tt.want {
			t.Errorf("clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBoxMeans_UniformPlane(t *testing.T) {
	w, h := 10, 10
	plane := make([]float64, w*h)
	for i := range plane {
		plane[i] = 0.4
	}

	means := boxMeans(plane, w, h, 3)
	for i, v := range means {
		if math.Abs(v-0.4) > 1e-9 {
			t.Fatalf("Expected uniform mean 0.4 at index %d, got %v", i, v)
		}
	}
}

func TestBoxMeans_LocalAveraging(t *testing.T) {
	w, h := 9, 9
	plane := make([]float64, w*h)
	plane[4*w+4] = 1 // single bright pixel in the center

	means := boxMeans(plane, w, h, 1)
	// 3x3 window over the center sees exactly one bright pixel
	if math.Abs(means[4*w+4]-1.0/9.0) > 1e-9 {
		t.Errorf("Expected 1/9 at center, got %v", means[4*w+4])
	}
	if means[0] != 0 {
		t.Errorf("Expected zero mean far from the bright pixel, got %v", means[0])
	}
}
